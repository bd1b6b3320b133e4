package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateRecord_MergeKeepsDistinctSources(t *testing.T) {
	agg := NewAggregateRecord(Target{Email: "jane@acme.com"}, time.Now())
	agg.Merge(SourceResult{Source: "github", Category: CategorySocial, Status: StatusOK})
	agg.Merge(SourceResult{Source: "reddit", Category: CategorySocial, Status: StatusNoData})
	agg.Merge(SourceResult{Source: "github", Category: CategorySocial, Status: StatusError})

	assert.Equal(t, []string{"github", "reddit"}, agg.SourceNames(CategorySocial))
	res, ok := agg.Result(CategorySocial, "github")
	assert.True(t, ok)
	assert.Equal(t, StatusError, res.Status)

	_, ok = agg.Result(CategoryBreaches, "hibp")
	assert.False(t, ok)
	assert.Empty(t, agg.SourceNames(CategoryBreaches))
}

func TestAggregateRecord_EachVisitsInOrder(t *testing.T) {
	var agg AggregateRecord
	agg.Merge(SourceResult{Source: "z", Category: CategorySocial})
	agg.Merge(SourceResult{Source: "a", Category: CategorySocial})
	agg.Merge(SourceResult{Source: "hibp", Category: CategoryBreaches})

	var seen []string
	agg.Each(func(r SourceResult) { seen = append(seen, string(r.Category)+"/"+r.Source) })

	assert.Equal(t, []string{"breaches/hibp", "social_media/a", "social_media/z"}, seen)
}

func TestBreachReport(t *testing.T) {
	agg := NewAggregateRecord(Target{Email: "jane@acme.com"}, time.Now())
	agg.Merge(SourceResult{Source: "hibp", Category: CategoryBreaches, Status: StatusOK, Payload: Payload{Breach: &BreachPayload{
		Breaches: []Breach{{Name: "Adobe"}, {Name: "LinkedIn"}},
		Pastes:   []Paste{{Source: "Pastebin", ID: "abc"}},
	}}})
	agg.Merge(SourceResult{Source: "dehashed", Category: CategoryBreaches, Status: StatusNeedsKey})
	agg.Merge(SourceResult{Source: "leakcheck", Category: CategoryBreaches, Status: StatusError, Error: "boom"})
	agg.Merge(SourceResult{Source: "breachdirectory", Category: CategoryBreaches, Status: StatusNoData})

	report := agg.BreachReport()

	assert.Equal(t, 2, report.TotalBreaches)
	assert.Len(t, report.Pastes, 1)
	assert.Equal(t, "Medium", report.RiskScore)
	assert.Equal(t, []string{"breachdirectory", "hibp"}, report.SourcesChecked)
}

func TestBreachRisk(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "Low"},
		{1, "Medium"},
		{3, "Medium"},
		{4, "High"},
		{7, "High"},
		{8, "Critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BreachRisk(tt.count), "count %d", tt.count)
	}
}

func TestStatusOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, StatusOK.Outcome())
	assert.Equal(t, OutcomeOK, StatusNoData.Outcome())
	assert.Equal(t, OutcomeUnavailable, StatusNeedsKey.Outcome())
	assert.Equal(t, OutcomeFailed, StatusRateLimited.Outcome())
	assert.Equal(t, OutcomeFailed, StatusError.Outcome())
	assert.True(t, SourceResult{Status: StatusError}.Failed())
}

func TestIdentifierParts(t *testing.T) {
	id := Identifier{Kind: KindEmail, Value: "jane.doe@acme.com"}
	assert.Equal(t, "jane.doe", id.LocalPart())
	assert.Equal(t, "acme.com", id.Domain())

	phone := Identifier{Kind: KindPhone, Value: "+16502530000"}
	assert.Empty(t, phone.LocalPart())
	assert.Empty(t, phone.Domain())

	assert.Equal(t, []Identifier{{KindEmail, "a@b.co"}, {KindPhone, "+16502530000"}},
		Target{Email: "a@b.co", Phone: "+16502530000"}.Identifiers())
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{Raw: map[string]any{
		"potential_usernames": []any{"jane", 42, "jdoe"},
		"potential_profiles":  []string{"https://github.com/jane"},
	}}
	assert.Equal(t, []string{"jane", "jdoe"}, p.Usernames())
	assert.Equal(t, []string{"https://github.com/jane"}, p.ProfileURLs())
	assert.Nil(t, Payload{}.Usernames())
}
