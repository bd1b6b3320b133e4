package sources

import (
	"context"
	"net/url"
	"strings"

	"footprint/internal/domain"
)

// linkConnector builds a payload from the identifier alone. It is used for
// platforms without a usable public API: the payload carries ready-to-open
// search links and manual-check advice instead of results.
type linkConnector struct {
	name     string
	category domain.Category
	kind     domain.IdentifierKind
	build    func(id domain.Identifier) domain.Payload
}

func (l *linkConnector) Name() string              { return l.name }
func (l *linkConnector) Category() domain.Category { return l.category }

func (l *linkConnector) Supports(kind domain.IdentifierKind) bool { return kind == l.kind }

func (l *linkConnector) Invoke(_ context.Context, id domain.Identifier) (domain.SourceResult, error) {
	return domain.SourceResult{
		Source:   l.name,
		Category: l.category,
		Status:   domain.StatusOK,
		Payload:  l.build(id),
	}, nil
}

func (l *linkConnector) Close() error { return nil }

// companyLabel is the first label of an email domain: acme.co.uk -> acme.
func companyLabel(id domain.Identifier) string {
	label, _, _ := strings.Cut(id.Domain(), ".")
	return label
}

// handleCandidates spells the local part the ways people usually register it.
func handleCandidates(local string, n int) []string {
	all := []string{
		local,
		strings.ReplaceAll(local, ".", ""),
		strings.ReplaceAll(local, "_", ""),
		strings.ReplaceAll(local, "-", ""),
	}
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, n)
	for _, c := range all {
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}

func profileURLs(base string, handles []string) []string {
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		out = append(out, base+url.PathEscape(h))
	}
	return out
}

func q(s string) string { return url.QueryEscape(s) }

// socialEmailLinks are the social platforms reachable only through links for
// an email target.
func socialEmailLinks() []*linkConnector {
	return []*linkConnector{
		{name: "twitter", category: domain.CategorySocial, kind: domain.KindEmail, build: twitterEmail},
		{name: "instagram", category: domain.CategorySocial, kind: domain.KindEmail, build: instagramEmail},
		{name: "facebook", category: domain.CategorySocial, kind: domain.KindEmail, build: facebookEmail},
		{name: "tiktok", category: domain.CategorySocial, kind: domain.KindEmail, build: tiktokEmail},
	}
}

// socialPhoneLinks are the social platforms for a phone target.
func socialPhoneLinks() []*linkConnector {
	return []*linkConnector{
		{name: "facebook_phone", category: domain.CategorySocial, kind: domain.KindPhone, build: facebookPhone},
		{name: "twitter_phone", category: domain.CategorySocial, kind: domain.KindPhone, build: twitterPhone},
		{name: "telegram", category: domain.CategorySocial, kind: domain.KindPhone, build: telegramPhone},
		{name: "whatsapp", category: domain.CategorySocial, kind: domain.KindPhone, build: whatsappPhone},
	}
}

// professionalLinks are portfolio and company sites probed by URL convention.
func professionalLinks() []*linkConnector {
	return []*linkConnector{
		{name: "stackoverflow", category: domain.CategoryProfessional, kind: domain.KindEmail, build: stackOverflow},
		{name: "wellfound", category: domain.CategoryProfessional, kind: domain.KindEmail, build: wellfound},
		{name: "crunchbase", category: domain.CategoryProfessional, kind: domain.KindEmail, build: crunchbase},
		{name: "behance", category: domain.CategoryProfessional, kind: domain.KindEmail, build: portfolio("behance", "https://www.behance.net/", "https://www.behance.net/search/users?search=")},
		{name: "dribbble", category: domain.CategoryProfessional, kind: domain.KindEmail, build: portfolio("dribbble", "https://dribbble.com/", "https://dribbble.com/search/")},
		{name: "kaggle", category: domain.CategoryProfessional, kind: domain.KindEmail, build: portfolio("kaggle", "https://www.kaggle.com/", "https://www.kaggle.com/search?q=")},
	}
}

// breachLinks are breach databases without a free API.
func breachLinks() []*linkConnector {
	return []*linkConnector{
		{name: "breachdirectory", category: domain.CategoryBreaches, kind: domain.KindEmail, build: breachLink("https://breachdirectory.org/search?query=")},
		{name: "leakcheck", category: domain.CategoryBreaches, kind: domain.KindEmail, build: breachLink("https://leakcheck.io/search?query=")},
	}
}

func twitterEmail(id domain.Identifier) domain.Payload {
	local := id.LocalPart()
	search := "https://twitter.com/search?src=typed_query&q="
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Twitter",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"exact_email": search + q(`"`+id.Value+`"`),
			"username":    search + q(local),
			"combined":    search + q(`"`+id.Value+`" OR `+local),
		},
		Note: "Open links to view live results; the official API requires a key.",
	}}
}

func instagramEmail(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Instagram",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"profile": "https://www.instagram.com/" + url.PathEscape(id.LocalPart()) + "/",
		},
		Recommendations: []string{
			"Check if the email username exists as an Instagram handle",
			"Search for the email in Instagram bio descriptions",
		},
		Note: "Instagram search requires manual investigation",
	}}
}

func facebookEmail(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Facebook",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"search": "https://www.facebook.com/search/top?q=" + q(id.Value),
		},
		Recommendations: []string{
			"Try a manual search on Facebook",
			"Check if the email is associated with public Facebook posts",
		},
		Note: "Facebook search is limited by privacy restrictions",
	}}
}

func tiktokEmail(id domain.Identifier) domain.Payload {
	links := map[string]string{}
	for i, h := range handleCandidates(id.LocalPart(), 2) {
		key := "profile"
		if i > 0 {
			key = "profile_compact"
		}
		links[key] = "https://www.tiktok.com/@" + url.PathEscape(h)
	}
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:    "TikTok",
		SearchType:  id.Kind,
		Query:       id.Value,
		SearchLinks: links,
		Note:        "Open links to view live results.",
	}}
}

func facebookPhone(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Facebook",
		SearchType: id.Kind,
		Query:      id.Value,
		Recommendations: []string{
			"Try Facebook friend finder",
			"Check if the phone is linked to Facebook account recovery",
			"Look for the phone number in public Facebook posts",
		},
		Note: "Facebook phone search is heavily restricted",
	}}
}

func twitterPhone(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Twitter",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"search": "https://twitter.com/search?src=typed_query&q=" + q(`"`+id.Value+`"`),
		},
		Recommendations: []string{
			"Check Twitter account recovery options",
			"Look for the phone number in Twitter bio descriptions",
		},
		Note: "Twitter phone search requires API access",
	}}
}

func telegramPhone(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "Telegram",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"contact": "https://t.me/" + url.PathEscape(id.Value),
		},
		Recommendations: []string{
			"Use Telegram contact discovery",
			"Look for the phone number in Telegram channel descriptions",
		},
		Note: "Telegram search requires specialized tools",
	}}
}

func whatsappPhone(id domain.Identifier) domain.Payload {
	return domain.Payload{Social: &domain.SocialPayload{
		Platform:   "WhatsApp",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"chat": "https://wa.me/" + strings.TrimPrefix(id.Value, "+"),
		},
		Recommendations: []string{
			"Add the phone to contacts and check WhatsApp",
			"Check the WhatsApp Business directory",
		},
		Note: "WhatsApp search is limited to contact discovery",
	}}
}

func stackOverflow(id domain.Identifier) domain.Payload {
	local := id.LocalPart()
	return domain.Payload{Professional: &domain.ProfessionalPayload{
		Platform:          "Stack Overflow",
		SearchType:        id.Kind,
		Query:             id.Value,
		PotentialProfiles: []string{"https://stackoverflow.com/users/" + url.PathEscape(local)},
		SearchLinks: map[string]string{
			"email":         "https://stackoverflow.com/search?q=" + q(id.Value),
			"username":      "https://stackoverflow.com/search?q=" + q(local),
			"stackexchange": "https://stackexchange.com/search?q=" + q(id.Value),
		},
		Note: "Stack Overflow search requires manual verification",
	}}
}

func wellfound(id domain.Identifier) domain.Payload {
	local := id.LocalPart()
	return domain.Payload{Professional: &domain.ProfessionalPayload{
		Platform:          "Wellfound",
		SearchType:        id.Kind,
		Query:             id.Value,
		PotentialProfiles: []string{"https://wellfound.com/u/" + url.PathEscape(local)},
		SearchSuggestions: []string{
			`Search for "` + local + `" on Wellfound`,
			"Look for startup employees with the email domain",
		},
		Note: "AngelList rebranded to Wellfound",
	}}
}

func crunchbase(id domain.Identifier) domain.Payload {
	company := companyLabel(id)
	return domain.Payload{Professional: &domain.ProfessionalPayload{
		Platform:      "Crunchbase",
		SearchType:    id.Kind,
		Query:         id.Value,
		CompanySearch: "https://www.crunchbase.com/organization/" + url.PathEscape(company),
		SearchSuggestions: []string{
			"Search for company: " + company,
			"Look for executives with the email domain",
		},
		Note: "Crunchbase requires a subscription for detailed info",
	}}
}

func portfolio(platform, profileBase, searchBase string) func(domain.Identifier) domain.Payload {
	return func(id domain.Identifier) domain.Payload {
		local := id.LocalPart()
		return domain.Payload{Professional: &domain.ProfessionalPayload{
			Platform:          platform,
			SearchType:        id.Kind,
			Query:             id.Value,
			PotentialProfiles: profileURLs(profileBase, handleCandidates(local, 3)),
			SearchLinks:       map[string]string{"search": searchBase + q(local)},
		}}
	}
}

func breachLink(searchBase string) func(domain.Identifier) domain.Payload {
	return func(id domain.Identifier) domain.Payload {
		return domain.Payload{Breach: &domain.BreachPayload{
			Breaches: []domain.Breach{},
			Links:    map[string]string{"search": searchBase + q(id.Value)},
			Note:     "Open the link to view live results (an account may be required).",
		}}
	}
}
