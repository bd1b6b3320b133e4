package domain

import (
	"sort"
	"time"
)

// AggregateRecord maps category -> source name -> result. Only the
// orchestrator writes to it, and only until fan-out settles.
type AggregateRecord struct {
	CreatedAt time.Time
	Target    Target
	Sources   map[Category]map[string]SourceResult
}

func NewAggregateRecord(target Target, createdAt time.Time) AggregateRecord {
	return AggregateRecord{
		CreatedAt: createdAt,
		Target:    target,
		Sources:   make(map[Category]map[string]SourceResult),
	}
}

// Merge records res under its category, keyed by source name. Distinct source
// names never overwrite each other; a repeated name replaces the earlier entry.
func (a *AggregateRecord) Merge(res SourceResult) {
	if a.Sources == nil {
		a.Sources = make(map[Category]map[string]SourceResult)
	}
	bucket, ok := a.Sources[res.Category]
	if !ok {
		bucket = make(map[string]SourceResult)
		a.Sources[res.Category] = bucket
	}
	bucket[res.Source] = res
}

// Categories returns the populated categories in lexical order.
func (a AggregateRecord) Categories() []Category {
	out := make([]Category, 0, len(a.Sources))
	for c := range a.Sources {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SourceNames returns the source names recorded under c in lexical order.
func (a AggregateRecord) SourceNames(c Category) []string {
	bucket := a.Sources[c]
	out := make([]string, 0, len(bucket))
	for name := range bucket {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Result looks up one source. Missing categories or sources read as absent.
func (a AggregateRecord) Result(c Category, source string) (SourceResult, bool) {
	res, ok := a.Sources[c][source]
	return res, ok
}

// Each visits every recorded result in category then source order.
func (a AggregateRecord) Each(fn func(SourceResult)) {
	for _, c := range a.Categories() {
		for _, name := range a.SourceNames(c) {
			fn(a.Sources[c][name])
		}
	}
}

// BreachReport summarises the breaches category.
type BreachReport struct {
	Breaches       []Breach `json:"breaches"`
	Pastes         []Paste  `json:"pastes"`
	TotalBreaches  int      `json:"total_breaches"`
	RiskScore      string   `json:"risk_score"`
	SourcesChecked []string `json:"sources_checked"`
}

// BreachReport folds every breach source into one report. Sources that failed
// or lacked credentials are not counted as checked.
func (a AggregateRecord) BreachReport() BreachReport {
	report := BreachReport{
		Breaches:       []Breach{},
		Pastes:         []Paste{},
		SourcesChecked: []string{},
	}
	for _, name := range a.SourceNames(CategoryBreaches) {
		res := a.Sources[CategoryBreaches][name]
		if res.Status.Outcome() != OutcomeOK {
			continue
		}
		report.SourcesChecked = append(report.SourcesChecked, name)
		if res.Payload.Breach == nil {
			continue
		}
		report.Breaches = append(report.Breaches, res.Payload.Breach.Breaches...)
		report.Pastes = append(report.Pastes, res.Payload.Breach.Pastes...)
	}
	report.TotalBreaches = len(report.Breaches)
	report.RiskScore = BreachRisk(report.TotalBreaches)
	return report
}

// BreachRisk maps a breach count to a risk label.
func BreachRisk(count int) string {
	switch {
	case count == 0:
		return "Low"
	case count <= 3:
		return "Medium"
	case count <= 7:
		return "High"
	default:
		return "Critical"
	}
}
