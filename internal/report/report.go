// Package report renders an investigation snapshot as html, markdown, plain
// text or json.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"footprint/internal/domain"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatHTML, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// Ext is the file extension reports of this format are saved with.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// ContentType is the media type served for this format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Renderer turns snapshots into report documents.
type Renderer struct {
	// Now stamps the generation time; defaults to time.Now.
	Now func() time.Time
}

// Render produces the report for snap in format f.
func (r Renderer) Render(snap *domain.Snapshot, f Format) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("render %s: nil snapshot", f)
	}
	v := r.view(snap)
	switch f {
	case FormatHTML:
		var buf bytes.Buffer
		if err := htmlReport.Execute(&buf, v); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		return buf.Bytes(), nil
	case FormatMarkdown:
		return []byte(renderTables(v, modeMarkdown)), nil
	case FormatText:
		return []byte(renderTables(v, modeText)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", f)
}

// Overview is the headline block shared by every human-readable format.
type Overview struct {
	PlatformsSearched    int
	BreachesFound        int
	SocialPresence       int
	ProfessionalPresence int
	CorrelationsFound    int
	FailedSources        int
	RiskLevel            string
}

// Summarize counts what the snapshot found.
func Summarize(snap *domain.Snapshot) Overview {
	agg := snap.Aggregate()
	o := Overview{
		BreachesFound:     len(snap.Breaches.Breaches),
		CorrelationsFound: len(snap.Correlations.CrossPlatformMatches.UsernameMatches),
		RiskLevel:         snap.Breaches.RiskScore,
	}
	platforms := map[string]struct{}{}
	for _, c := range []domain.Category{domain.CategorySocial, domain.CategoryProfessional} {
		for _, name := range agg.SourceNames(c) {
			platforms[name] = struct{}{}
			res, _ := agg.Result(c, name)
			if res.Status != domain.StatusOK {
				continue
			}
			if c == domain.CategorySocial {
				o.SocialPresence++
			} else {
				o.ProfessionalPresence++
			}
		}
	}
	o.PlatformsSearched = len(platforms)
	agg.Each(func(res domain.SourceResult) {
		if res.Failed() {
			o.FailedSources++
		}
	})
	if o.RiskLevel == "" {
		o.RiskLevel = domain.BreachRisk(o.BreachesFound)
	}
	return o
}

type sourceRow struct {
	Category string
	Source   string
	Status   string
	Failed   bool
	Detail   string
}

type profileGroup struct {
	Platform string
	Profiles []string
	Verified []domain.ProfileCheck
	Note     string
}

type view struct {
	Generated    string
	Snapshot     *domain.Snapshot
	Overview     Overview
	Sources      []sourceRow
	Social       []profileGroup
	Professional []profileGroup
	Usernames    []domain.Username
}

func (r Renderer) view(snap *domain.Snapshot) view {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	agg := snap.Aggregate()
	v := view{
		Generated: now().UTC().Format("2006-01-02 15:04:05 MST"),
		Snapshot:  snap,
		Overview:  Summarize(snap),
	}
	agg.Each(func(res domain.SourceResult) {
		detail := res.Error
		if detail == "" {
			detail = res.Warning
		}
		v.Sources = append(v.Sources, sourceRow{
			Category: string(res.Category),
			Source:   res.Source,
			Status:   string(res.Status),
			Failed:   res.Failed(),
			Detail:   detail,
		})
	})
	v.Social = profiles(agg, domain.CategorySocial)
	v.Professional = profiles(agg, domain.CategoryProfessional)
	for _, name := range sortedKeys(snap.Correlations.Usernames) {
		v.Usernames = append(v.Usernames, snap.Correlations.Usernames[name])
	}
	return v
}

func profiles(agg domain.AggregateRecord, c domain.Category) []profileGroup {
	var out []profileGroup
	for _, name := range agg.SourceNames(c) {
		res, _ := agg.Result(c, name)
		g := profileGroup{Platform: name, Profiles: res.Payload.ProfileURLs()}
		switch {
		case res.Payload.Professional != nil:
			g.Verified = res.Payload.Professional.VerifiedProfiles
			g.Note = res.Payload.Professional.Note
		case res.Payload.Social != nil:
			g.Note = res.Payload.Social.Note
		}
		if len(g.Profiles) == 0 && len(g.Verified) == 0 {
			continue
		}
		out = append(out, g)
	}
	return out
}
