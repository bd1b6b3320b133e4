package correlator

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"footprint/internal/domain"
)

var (
	fullNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+)`),
		regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z]\.\s+[A-Z][a-z]+)`),
	}
	emailDomainPattern = regexp.MustCompile(`@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	companyPattern     = regexp.MustCompile(`([A-Z][a-zA-Z\s&]+(?:Inc|LLC|Corp|Ltd))`)
	companyURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/company/([a-zA-Z0-9._-]+)`),
		regexp.MustCompile(`/organization/([a-zA-Z0-9._-]+)`),
		regexp.MustCompile(`//([a-zA-Z0-9.-]+)\.`),
	}
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z]{2})\b`),
		regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z][a-z]+)`),
	}
)

const (
	emailDomainSource = "email_domain"
	textSource        = "text"
	phoneSource       = "phone_analysis"
)

// collectText returns every string leaf reachable from the target and the
// source payloads.
func (e *Engine) collectText(agg domain.AggregateRecord) []string {
	raw, err := json.Marshal(struct {
		Target  domain.Target                                      `json:"target_info"`
		Sources map[domain.Category]map[string]domain.SourceResult `json:"sources"`
	}{agg.Target, agg.Sources})
	if err != nil {
		e.logger.Debug("Aggregate not walkable", zap.Error(err))
		return nil
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		e.logger.Debug("Aggregate not walkable", zap.Error(err))
		return nil
	}
	var out []string
	walkStrings(tree, func(s string) { out = append(out, s) })
	return out
}

func walkStrings(v any, fn func(string)) {
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			walkStrings(child, fn)
		}
	case []any:
		for _, child := range t {
			walkStrings(child, fn)
		}
	case string:
		fn(t)
	}
}

// findAll applies one pattern and treats any failure as "no match".
func findAll(re *regexp.Regexp, text string) (out []string) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}

func findSubmatch(re *regexp.Regexp, text string) (out []string) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return re.FindStringSubmatch(text)
}

func (e *Engine) names(text []string) domain.Names {
	full := map[string]struct{}{}
	for _, t := range text {
		for _, re := range fullNamePatterns {
			for _, m := range findAll(re, t) {
				full[m] = struct{}{}
			}
		}
	}
	first := map[string]struct{}{}
	last := map[string]struct{}{}
	for name := range full {
		parts := strings.Fields(name)
		if len(parts) >= 2 {
			first[parts[0]] = struct{}{}
			last[parts[len(parts)-1]] = struct{}{}
		}
	}
	return domain.Names{
		FullNames:  sortedKeys(full),
		FirstNames: sortedKeys(first),
		LastNames:  sortedKeys(last),
	}
}

// CompanyFromDomain names the organisation behind a mail domain after the
// first label of its registrable domain: "mail.acme.co.uk" -> "Acme".
func CompanyFromDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	label, _, _ := strings.Cut(registrable, ".")
	return titleCase(label)
}

// CompanyFromURL extracts an organisation name from a company page URL.
func CompanyFromURL(url string) string {
	for _, re := range companyURLPatterns {
		if m := findSubmatch(re, url); len(m) > 1 {
			return titleCase(strings.ReplaceAll(m[1], "-", " "))
		}
	}
	return ""
}

func (e *Engine) companies(agg domain.AggregateRecord, text []string) domain.Companies {
	byDomain := map[string]domain.Company{}
	target := domain.Identifier{Kind: domain.KindEmail, Value: agg.Target.Email}
	if host := target.Domain(); host != "" {
		byDomain[host] = domain.Company{Name: CompanyFromDomain(host), Domain: host, Source: emailDomainSource}
	}
	mentioned := map[domain.Company]struct{}{}
	for _, t := range text {
		for _, host := range findAll(emailDomainPattern, t) {
			host = strings.ToLower(host)
			if _, ok := byDomain[host]; !ok {
				byDomain[host] = domain.Company{Name: CompanyFromDomain(host), Domain: host, Source: textSource}
			}
		}
		for _, name := range findAll(companyPattern, t) {
			mentioned[domain.Company{Name: strings.TrimSpace(name), Source: textSource}] = struct{}{}
		}
	}
	for _, name := range agg.SourceNames(domain.CategoryProfessional) {
		res, _ := agg.Result(domain.CategoryProfessional, name)
		if res.Payload.Professional == nil || res.Payload.Professional.CompanySearch == "" {
			continue
		}
		url := res.Payload.Professional.CompanySearch
		if company := CompanyFromURL(url); company != "" {
			mentioned[domain.Company{Name: company, Source: name, URL: url}] = struct{}{}
		}
	}

	out := domain.Companies{
		EmailDomainCompanies: make([]domain.Company, 0, len(byDomain)),
		MentionedCompanies:   make([]domain.Company, 0, len(mentioned)),
	}
	for _, c := range byDomain {
		out.EmailDomainCompanies = append(out.EmailDomainCompanies, c)
	}
	for c := range mentioned {
		out.MentionedCompanies = append(out.MentionedCompanies, c)
	}
	sortCompanies(out.EmailDomainCompanies)
	sortCompanies(out.MentionedCompanies)
	return out
}

func sortCompanies(cs []domain.Company) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.URL < b.URL
	})
}

func (e *Engine) locations(agg domain.AggregateRecord, text []string) domain.Locations {
	phone := map[domain.PhoneLocation]struct{}{}
	timezones := map[string]struct{}{}
	countries := map[string]struct{}{}
	for _, name := range agg.SourceNames(domain.CategoryPhoneIntel) {
		res, _ := agg.Result(domain.CategoryPhoneIntel, name)
		p := res.Payload.Phone
		if p == nil {
			continue
		}
		if p.Location != "" && p.Location != "Unknown" {
			phone[domain.PhoneLocation{Location: p.Location, Country: p.Region, Source: phoneSource}] = struct{}{}
		}
		for _, tz := range p.Timezones {
			if tz != "" {
				timezones[tz] = struct{}{}
			}
		}
		if p.Region != "" && p.Region != "ZZ" {
			countries[p.Region] = struct{}{}
		}
	}
	mentioned := map[string]struct{}{}
	for _, t := range text {
		for _, re := range locationPatterns {
			for _, m := range findAll(re, t) {
				mentioned[m] = struct{}{}
			}
		}
	}

	out := domain.Locations{
		PhoneLocations:     make([]domain.PhoneLocation, 0, len(phone)),
		MentionedLocations: sortedKeys(mentioned),
		Timezones:          sortedKeys(timezones),
		Countries:          sortedKeys(countries),
	}
	for l := range phone {
		out.PhoneLocations = append(out.PhoneLocations, l)
	}
	sort.Slice(out.PhoneLocations, func(i, j int) bool {
		a, b := out.PhoneLocations[i], out.PhoneLocations[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Country < b.Country
	})
	return out
}

// titleCase upper-cases the first letter of every word, where any non-letter
// starts a new word.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
