// Package correlator fuses the per-source fragments of an investigation into
// one profile: usernames, names, companies, locations, cross-platform matches,
// a timeline, confidence scores and a relationship graph.
//
// Correlate is a pure function of the aggregate record. It never touches the
// network and never fails: missing or malformed data reads as absent.
package correlator

import (
	"fmt"

	"go.uber.org/zap"

	"footprint/internal/domain"
)

// Score weights and per-item increments.
const (
	usernamePerPlatform = 20
	identityPerName     = 30
	locationPerGroup    = 25

	usernameWeight = 0.4
	identityWeight = 0.3
	locationWeight = 0.3

	highConfidence   = 80
	mediumConfidence = 50

	manyPlatforms = 5
)

type Engine struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("correlator")}
}

// Correlate builds the correlation result for agg.
func (e *Engine) Correlate(agg domain.AggregateRecord) domain.CorrelationResult {
	text := e.collectText(agg)

	result := domain.CorrelationResult{
		Usernames:            e.usernames(agg),
		Names:                e.names(text),
		Companies:            e.companies(agg, text),
		Locations:            e.locations(agg, text),
		CrossPlatformMatches: crossPlatformMatches(agg),
		Timeline:             timeline(agg),
	}
	result.ConfidenceScores = confidence(result)
	result.RelationshipGraph = relationshipGraph(result.Usernames)
	result.Summary = summarize(result, agg.BreachReport())
	return result
}

func confidence(r domain.CorrelationResult) domain.ConfidenceScores {
	maxPlatforms := 0
	for _, platforms := range r.CrossPlatformMatches.UsernameMatches {
		maxPlatforms = max(maxPlatforms, len(platforms))
	}
	s := domain.ConfidenceScores{
		Username: clamp(usernamePerPlatform * maxPlatforms),
		Identity: clamp(identityPerName * len(r.Names.FullNames)),
		Location: clamp(locationPerGroup * r.Locations.NonEmpty()),
	}
	s.Overall = usernameWeight*float64(s.Username) +
		identityWeight*float64(s.Identity) +
		locationWeight*float64(s.Location)
	return s
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}

// ConfidenceLevel maps an overall score to High, Medium or Low.
func ConfidenceLevel(overall float64) string {
	switch {
	case overall >= highConfidence:
		return "High"
	case overall >= mediumConfidence:
		return "Medium"
	default:
		return "Low"
	}
}

func summarize(r domain.CorrelationResult, breaches domain.BreachReport) domain.Summary {
	platforms := make(map[string]struct{})
	for _, u := range r.Usernames {
		for _, p := range u.Platforms {
			platforms[p] = struct{}{}
		}
	}
	s := domain.Summary{
		TotalUsernames:       len(r.Usernames),
		TotalPlatforms:       len(platforms),
		CrossPlatformMatches: len(r.CrossPlatformMatches.UsernameMatches),
		ConfidenceLevel:      ConfidenceLevel(r.ConfidenceScores.Overall),
		RiskLevel:            breaches.RiskScore,
		KeyFindings:          []string{},
		Recommendations:      []string{},
	}
	if s.RiskLevel == "" {
		s.RiskLevel = domain.BreachRisk(len(breaches.Breaches))
	}

	if s.CrossPlatformMatches > 0 {
		s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("Found %d cross-platform username matches", s.CrossPlatformMatches))
	}
	if s.TotalPlatforms > manyPlatforms {
		s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("Target has presence on %d platforms", s.TotalPlatforms))
	}
	if n := len(breaches.Breaches); n > 0 {
		s.KeyFindings = append(s.KeyFindings, fmt.Sprintf("Target appears in %d breach records", n))
	}

	switch s.ConfidenceLevel {
	case "High":
		s.Recommendations = append(s.Recommendations, "High confidence correlations found - proceed with detailed analysis")
	case "Medium":
		s.Recommendations = append(s.Recommendations, "Medium confidence - corroborate findings with additional data sources")
	default:
		s.Recommendations = append(s.Recommendations, "Low confidence - consider additional data sources")
	}
	if s.CrossPlatformMatches > 0 {
		s.Recommendations = append(s.Recommendations, "Verify cross-platform matches manually")
	}
	if s.RiskLevel == "High" || s.RiskLevel == "Critical" {
		s.Recommendations = append(s.Recommendations, "Review exposed data classes and rotate affected credentials")
	}
	return s
}
