package correlator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"footprint/internal/domain"
)

const timelineSource = "footprint"

// timestampLayouts are tried in order when placing an event on the timeline.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func timeline(agg domain.AggregateRecord) []domain.Event {
	started := ""
	if !agg.CreatedAt.IsZero() {
		started = agg.CreatedAt.UTC().Format(time.RFC3339)
	}
	events := []domain.Event{{
		Timestamp:   started,
		Label:       domain.EventInvestigationStarted,
		Description: "Investigation started",
		Source:      timelineSource,
		Details:     agg.Target,
	}}
	for _, b := range agg.BreachReport().Breaches {
		if b.BreachDate == "" {
			continue
		}
		name := b.Name
		if name == "" {
			name = b.Database
		}
		events = append(events, domain.Event{
			Timestamp:   b.BreachDate,
			Label:       domain.EventDataBreach,
			Description: fmt.Sprintf("Data breach: %s", name),
			Source:      name,
			Details:     b,
		})
	}
	sortEvents(events)
	return events
}

// sortEvents orders events newest first by parsed instant. Events whose
// timestamp does not parse go last, newest raw string first.
func sortEvents(events []domain.Event) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make([]keyed, len(events))
	idx := make([]int, len(events))
	for i := range events {
		at, ok := parseTimestamp(events[i].Timestamp)
		keys[i] = keyed{at: at, ok: ok}
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		ea, eb := events[idx[a]], events[idx[b]]
		switch {
		case ka.ok && !kb.ok:
			return true
		case !ka.ok && kb.ok:
			return false
		case ka.ok && !ka.at.Equal(kb.at):
			return ka.at.After(kb.at)
		case !ka.ok && ea.Timestamp != eb.Timestamp:
			return ea.Timestamp > eb.Timestamp
		case ea.Label != eb.Label:
			return ea.Label < eb.Label
		default:
			return ea.Description < eb.Description
		}
	})
	sorted := make([]domain.Event, len(events))
	for i, j := range idx {
		sorted[i] = events[j]
	}
	copy(events, sorted)
}
