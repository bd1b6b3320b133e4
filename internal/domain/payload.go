package domain

// Payload is a tagged variant: exactly one of the typed fields is set for
// modelled sources. Raw carries anything an integration returned that is not
// modelled so presentation can still render it.
type Payload struct {
	Social       *SocialPayload       `json:"social,omitempty"`
	Professional *ProfessionalPayload `json:"professional,omitempty"`
	Breach       *BreachPayload       `json:"breach,omitempty"`
	Phone        *PhonePayload        `json:"phone,omitempty"`
	Search       *SearchPayload       `json:"search,omitempty"`
	Raw          map[string]any       `json:"raw,omitempty"`
}

// Usernames returns the candidate handles a payload reports.
func (p Payload) Usernames() []string {
	if p.Social != nil {
		return p.Social.PotentialUsernames
	}
	if p.Professional != nil {
		return p.Professional.PotentialUsernames
	}
	return rawStrings(p.Raw, "potential_usernames")
}

// ProfileURLs returns the profile URLs a payload reports.
func (p Payload) ProfileURLs() []string {
	if p.Professional != nil {
		return p.Professional.PotentialProfiles
	}
	if p.Social != nil {
		return p.Social.ProfileURLs
	}
	return rawStrings(p.Raw, "potential_profiles")
}

// rawStrings reads a list of strings from an unmodelled payload, skipping
// anything that is not a string.
func rawStrings(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ProfileCheck is the outcome of probing one candidate profile URL.
type ProfileCheck struct {
	URL        string `json:"url"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Status     string `json:"status"`
	Confidence string `json:"confidence,omitempty"`
}

// Post is a public post referencing the target.
type Post struct {
	Title     string `json:"title"`
	Community string `json:"community,omitempty"`
	URL       string `json:"url"`
}

type SocialPayload struct {
	Platform           string            `json:"platform"`
	SearchType         IdentifierKind    `json:"search_type"`
	Query              string            `json:"query"`
	PotentialUsernames []string          `json:"potential_usernames,omitempty"`
	ProfileURLs        []string          `json:"profile_urls,omitempty"`
	Checks             []ProfileCheck    `json:"checks,omitempty"`
	Posts              []Post            `json:"posts,omitempty"`
	SearchLinks        map[string]string `json:"public_search_links,omitempty"`
	Recommendations    []string          `json:"recommendations,omitempty"`
	Note               string            `json:"note,omitempty"`
}

type ProfessionalPayload struct {
	Platform           string            `json:"platform"`
	SearchType         IdentifierKind    `json:"search_type"`
	Query              string            `json:"query"`
	PotentialUsernames []string          `json:"potential_usernames,omitempty"`
	PotentialProfiles  []string          `json:"potential_profiles,omitempty"`
	VerifiedProfiles   []ProfileCheck    `json:"verified_profiles,omitempty"`
	CompanySearch      string            `json:"company_search,omitempty"`
	SearchLinks        map[string]string `json:"public_search_links,omitempty"`
	SearchSuggestions  []string          `json:"search_suggestions,omitempty"`
	Note               string            `json:"note,omitempty"`
}

// Breach is one breach record. HaveIBeenPwned fills the catalogue fields,
// DeHashed fills the entry fields.
type Breach struct {
	Name        string   `json:"name,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	BreachDate  string   `json:"breach_date,omitempty"`
	AddedDate   string   `json:"added_date,omitempty"`
	PwnCount    int64    `json:"pwn_count,omitempty"`
	Description string   `json:"description,omitempty"`
	DataClasses []string `json:"data_classes,omitempty"`
	IsVerified  bool     `json:"is_verified,omitempty"`
	IsSensitive bool     `json:"is_sensitive,omitempty"`

	Database string `json:"database,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

type Paste struct {
	Source     string `json:"source"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Date       string `json:"date,omitempty"`
	EmailCount int    `json:"email_count,omitempty"`
}

type BreachPayload struct {
	Breaches []Breach          `json:"breaches"`
	Pastes   []Paste           `json:"pastes,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Note     string            `json:"note,omitempty"`
}

type PhoneValidation struct {
	IsValid       bool   `json:"is_valid"`
	IsPossible    bool   `json:"is_possible"`
	NumberType    string `json:"number_type"`
	E164          string `json:"formatted_e164"`
	International string `json:"formatted_international"`
	National      string `json:"formatted_national"`
}

type RiskAssessment struct {
	Level           string   `json:"risk_level"`
	Score           int      `json:"risk_score"`
	Factors         []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

type PhonePayload struct {
	PhoneNumber    string            `json:"phone_number"`
	Validation     PhoneValidation   `json:"validation"`
	CountryCode    int32             `json:"country_code"`
	NationalNumber uint64            `json:"national_number"`
	Region         string            `json:"region_code"`
	Carrier        string            `json:"carrier_name"`
	Location       string            `json:"location"`
	Timezones      []string          `json:"timezones"`
	LookupLinks    map[string]string `json:"lookup_links,omitempty"`
	CountryLinks   map[string]string `json:"country_specific,omitempty"`
	Risk           RiskAssessment    `json:"risk_assessment"`
}

// SearchLink is a ready-to-open search engine query.
type SearchLink struct {
	Engine string `json:"engine"`
	Query  string `json:"query"`
	URL    string `json:"url"`
}

// SearchHit is a result returned by an engine that answered directly.
type SearchHit struct {
	Engine string `json:"engine"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

type SearchPayload struct {
	Query     string         `json:"query"`
	QueryType IdentifierKind `json:"query_type"`
	Dorks     []string       `json:"dorking_queries"`
	Links     []SearchLink   `json:"links"`
	Hits      []SearchHit    `json:"hits,omitempty"`
}
