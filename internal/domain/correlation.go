package domain

// Username is a candidate handle. Usernames with the same Value are the same entity.
type Username struct {
	Value      string   `json:"value"`
	Sources    []string `json:"originating_sources"`
	Platforms  []string `json:"platforms"`
	Variations []string `json:"variations"`
}

type Names struct {
	FullNames  []string `json:"full_names"`
	FirstNames []string `json:"first_names"`
	LastNames  []string `json:"last_names"`
}

type Company struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

type Companies struct {
	EmailDomainCompanies []Company `json:"email_domain_companies"`
	MentionedCompanies   []Company `json:"mentioned_companies"`
}

type PhoneLocation struct {
	Location string `json:"location"`
	Country  string `json:"country,omitempty"`
	Source   string `json:"source"`
}

type Locations struct {
	PhoneLocations     []PhoneLocation `json:"phone_locations"`
	MentionedLocations []string        `json:"mentioned_locations"`
	Timezones          []string        `json:"timezones"`
	Countries          []string        `json:"countries"`
}

// NonEmpty counts location groups that hold at least one entry.
func (l Locations) NonEmpty() int {
	n := 0
	for _, size := range []int{len(l.PhoneLocations), len(l.MentionedLocations), len(l.Timezones), len(l.Countries)} {
		if size > 0 {
			n++
		}
	}
	return n
}

type ProfileMatch struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type CrossPlatformMatches struct {
	UsernameMatches map[string][]string       `json:"username_matches"`
	ProfileMatches  map[string][]ProfileMatch `json:"profile_matches"`
}

// Event is one timeline entry. Timestamp is kept as reported by the source.
type Event struct {
	Timestamp   string `json:"timestamp"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Details     any    `json:"details,omitempty"`
}

const (
	EventInvestigationStarted = "investigation_started"
	EventDataBreach           = "data_breach"
)

type ConfidenceScores struct {
	Overall  float64 `json:"overall_confidence"`
	Username int     `json:"username_confidence"`
	Identity int     `json:"identity_confidence"`
	Location int     `json:"location_confidence"`
}

// Graph node kinds.
const (
	NodeTarget   = "target"
	NodeUsername = "username"
	NodePlatform = "platform"
)

type GraphNode struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Kind      string   `json:"type"`
	Size      int      `json:"size"`
	Platforms []string `json:"platforms,omitempty"`
}

type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

type RelationshipGraph struct {
	Nodes  []GraphNode `json:"nodes"`
	Edges  []GraphEdge `json:"edges"`
	Layout string      `json:"layout"`
}

type Summary struct {
	TotalUsernames       int      `json:"total_usernames_found"`
	TotalPlatforms       int      `json:"total_platforms_found"`
	CrossPlatformMatches int      `json:"cross_platform_matches"`
	ConfidenceLevel      string   `json:"confidence_level"`
	RiskLevel            string   `json:"risk_level"`
	KeyFindings          []string `json:"key_findings"`
	Recommendations      []string `json:"recommendations"`
}

// CorrelationResult is built once per investigation and not mutated afterwards.
type CorrelationResult struct {
	Usernames            map[string]Username  `json:"usernames"`
	Names                Names                `json:"names"`
	Companies            Companies            `json:"companies"`
	Locations            Locations            `json:"locations"`
	CrossPlatformMatches CrossPlatformMatches `json:"cross_platform_matches"`
	Timeline             []Event              `json:"timeline"`
	ConfidenceScores     ConfidenceScores     `json:"confidence_scores"`
	RelationshipGraph    RelationshipGraph    `json:"relationship_graph"`
	Summary              Summary              `json:"summary"`
}
