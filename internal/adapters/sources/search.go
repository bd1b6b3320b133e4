package sources

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"footprint/internal/domain"
)

const (
	linkedQueries   = 3
	answeredQueries = 2
	maxHits         = 5
)

// Search generates search-engine dorks for the identifier, links them for
// Google and Bing, and asks DuckDuckGo's instant-answer API about the first
// few. Results are keyed by identifier kind, so one investigation may record
// both "email" and "phone".
type Search struct {
	web     *webClient
	ddgURL  string
	engines []engine
}

type engine struct {
	name string
	base string
}

func NewSearch(opts Options) *Search {
	return &Search{
		web:    newWebClient(opts),
		ddgURL: "https://api.duckduckgo.com/",
		engines: []engine{
			{name: "Google", base: "https://www.google.com/search?q="},
			{name: "Bing", base: "https://www.bing.com/search?q="},
		},
	}
}

func (s *Search) Name() string              { return "search" }
func (s *Search) Category() domain.Category { return domain.CategorySearch }
func (s *Search) Close() error              { return s.web.Close() }

func (s *Search) Supports(kind domain.IdentifierKind) bool {
	return kind == domain.KindEmail || kind == domain.KindPhone
}

func (s *Search) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	var dorks []string
	if id.Kind == domain.KindPhone {
		dorks = PhoneDorks(id.Value)
	} else {
		dorks = EmailDorks(id.Value)
	}
	payload := &domain.SearchPayload{
		Query:     id.Value,
		QueryType: id.Kind,
		Dorks:     dorks,
		Links:     []domain.SearchLink{},
	}
	for _, e := range s.engines {
		for _, d := range dorks[:min(linkedQueries, len(dorks))] {
			payload.Links = append(payload.Links, domain.SearchLink{Engine: e.name, Query: d, URL: e.base + q(d)})
		}
	}
	for _, d := range dorks[:min(answeredQueries, len(dorks))] {
		hits, err := s.instantAnswer(ctx, d)
		if ctx.Err() != nil {
			return domain.SourceResult{}, ctx.Err()
		}
		if err != nil {
			continue
		}
		payload.Hits = append(payload.Hits, hits...)
	}
	return domain.SourceResult{
		Source:   string(id.Kind),
		Category: domain.CategorySearch,
		Status:   domain.StatusOK,
		Payload:  domain.Payload{Search: payload},
	}, nil
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgAnswer struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (s *Search) instantAnswer(ctx context.Context, query string) ([]domain.SearchHit, error) {
	var answer ddgAnswer
	status, err := s.web.getJSON(ctx, s.ddgURL+"?format=json&no_redirect=1&no_html=1&q="+q(query), nil, &answer)
	if err != nil || status != http.StatusOK {
		return nil, err
	}
	var hits []domain.SearchHit
	if answer.AbstractURL != "" {
		title := answer.Heading
		if title == "" {
			title = answer.AbstractText
		}
		hits = append(hits, domain.SearchHit{Engine: "DuckDuckGo", Title: title, URL: answer.AbstractURL})
	}
	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(hits) >= maxHits {
				return
			}
			if t.FirstURL != "" && t.Text != "" {
				hits = append(hits, domain.SearchHit{Engine: "DuckDuckGo", Title: t.Text, URL: t.FirstURL})
			}
			walk(t.Topics)
		}
	}
	walk(answer.RelatedTopics)
	return hits, nil
}

// EmailDorks returns the search queries worth running for an email address.
func EmailDorks(email string) []string {
	local, host, _ := strings.Cut(email, "@")
	company, _, _ := strings.Cut(host, ".")
	e := `"` + email + `"`
	out := []string{
		e,
		e + " -site:linkedin.com",
	}
	for _, site := range []string{"facebook.com", "twitter.com", "instagram.com", "github.com", "stackoverflow.com", "reddit.com"} {
		out = append(out, e+" site:"+site)
	}
	for _, ft := range []string{"pdf", "doc", "docx", "xls"} {
		out = append(out, e+" filetype:"+ft)
	}
	return append(out,
		e+` "contact" OR "email"`,
		`"`+local+`" site:`+host,
		`"`+local+`" "`+company+`"`,
		e+` "resume" OR "cv"`,
		e+` "profile" OR "about"`,
		e+` "phone" OR "mobile"`,
		e+` "address" OR "location"`,
		`intext:`+e+` site:pastebin.com`,
		`intext:`+e+` site:paste.org`,
		e+` "breach" OR "leak" OR "dump"`,
	)
}

// PhoneDorks returns queries for each common spelling of a phone number.
func PhoneDorks(phone string) []string {
	var out []string
	for _, v := range phoneSpellings(phone) {
		p := `"` + v + `"`
		out = append(out,
			p,
			p+" -site:whitepages.com",
			p+" site:facebook.com",
			p+" site:linkedin.com",
			p+` "contact" OR "phone"`,
			p+` "business" OR "company"`,
			p+` "resume" OR "cv"`,
		)
	}
	return out
}

func phoneSpellings(phone string) []string {
	candidates := []string{phone, digitsOnly(phone)}
	if num, err := phonenumbers.Parse(phone, ""); err == nil {
		candidates = append(candidates,
			phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
			phonenumbers.Format(num, phonenumbers.NATIONAL),
		)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, c := range candidates {
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
