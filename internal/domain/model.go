package domain

import (
	"strings"
	"time"
)

// Core domain models shared by the orchestrator, the correlation engine and the
// adapters. Wire shapes for the dashboard API reuse these directly.

// IdentifierKind tells connectors what kind of target they are given.
type IdentifierKind string

const (
	KindEmail IdentifierKind = "email"
	KindPhone IdentifierKind = "phone"
)

// Identifier is a normalized email (lowercase domain) or E.164 phone number.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// LocalPart returns the part before '@' for email identifiers.
func (id Identifier) LocalPart() string {
	if id.Kind != KindEmail {
		return ""
	}
	if i := strings.LastIndexByte(id.Value, '@'); i >= 0 {
		return id.Value[:i]
	}
	return ""
}

// Domain returns the part after '@' for email identifiers.
func (id Identifier) Domain() string {
	if id.Kind != KindEmail {
		return ""
	}
	if i := strings.LastIndexByte(id.Value, '@'); i >= 0 {
		return id.Value[i+1:]
	}
	return ""
}

// Target is the validated pair of identifiers for one investigation.
type Target struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Identifiers returns the target's identifiers, email first.
func (t Target) Identifiers() []Identifier {
	var out []Identifier
	if t.Email != "" {
		out = append(out, Identifier{Kind: KindEmail, Value: t.Email})
	}
	if t.Phone != "" {
		out = append(out, Identifier{Kind: KindPhone, Value: t.Phone})
	}
	return out
}

// Category groups sources in the aggregate record.
type Category string

const (
	CategorySocial       Category = "social_media"
	CategoryProfessional Category = "professional"
	CategoryBreaches     Category = "breaches"
	CategoryPhoneIntel   Category = "phone_intel"
	CategorySearch       Category = "search_results"
	CategoryEmailRep     Category = "email_rep"
	CategoryHunter       Category = "hunter"
	CategoryDNS          Category = "dns_whois"
)

// Status is the outcome a connector reports for one invocation.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoData      Status = "no_data"
	StatusNeedsKey    Status = "needs_key"
	StatusRateLimited Status = "rate_limited"
	StatusError       Status = "error"
)

// Outcome folds Status into ok|unavailable|failed.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
)

func (s Status) Outcome() Outcome {
	switch s {
	case StatusOK, StatusNoData:
		return OutcomeOK
	case StatusNeedsKey:
		return OutcomeUnavailable
	default:
		return OutcomeFailed
	}
}

// SourceResult is what one connector produced. Treat as immutable once returned.
type SourceResult struct {
	Source   string   `json:"source"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	Payload  Payload  `json:"payload"`
	Error    string   `json:"error,omitempty"`
	Warning  string   `json:"warning,omitempty"`
}

// Failed reports whether the source could not produce data.
func (r SourceResult) Failed() bool { return r.Status.Outcome() == OutcomeFailed }

// Snapshot is the persisted document for one investigation run.
type Snapshot struct {
	ID           string                               `json:"id"`
	Timestamp    time.Time                            `json:"timestamp"`
	TargetInfo   Target                               `json:"target_info"`
	Sources      map[Category]map[string]SourceResult `json:"sources"`
	Breaches     BreachReport                         `json:"breaches"`
	Correlations CorrelationResult                    `json:"correlations"`
	Warnings     []string                             `json:"warnings"`
}

// Aggregate rebuilds the aggregate record view of a snapshot.
func (s Snapshot) Aggregate() AggregateRecord {
	return AggregateRecord{CreatedAt: s.Timestamp, Target: s.TargetInfo, Sources: s.Sources}
}

// Investigation status values used by the job queue.
const (
	InvestigationQueued    = "queued"
	InvestigationRunning   = "running"
	InvestigationCompleted = "completed"
	InvestigationFailed    = "failed"
)

// Investigation is a queued or finished run tracked by the dashboard API.
type Investigation struct {
	ID         string     `json:"id"`
	Target     Target     `json:"target"`
	Status     string     `json:"status"`
	Progress   float64    `json:"progress"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
