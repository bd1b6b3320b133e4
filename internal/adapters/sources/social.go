package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"footprint/internal/domain"
)

// GitHub checks whether handles derived from the email local part exist.
type GitHub struct {
	web     *webClient
	baseURL string
}

func NewGitHub(opts Options) *GitHub {
	return &GitHub{web: newWebClient(opts), baseURL: "https://github.com"}
}

func (g *GitHub) Name() string              { return "github" }
func (g *GitHub) Category() domain.Category { return domain.CategorySocial }
func (g *GitHub) Close() error              { return g.web.Close() }

func (g *GitHub) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

func (g *GitHub) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	local := id.LocalPart()
	payload := &domain.SocialPayload{
		Platform:   "GitHub",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"commits_by_email":  "https://github.com/search?type=commits&q=" + q(id.Value),
			"issues_by_email":   "https://github.com/search?type=issues&q=" + q(id.Value),
			"users_by_username": "https://github.com/search?type=users&q=" + q(local),
		},
	}
	for _, handle := range handleCandidates(local, 2) {
		profile := g.baseURL + "/" + url.PathEscape(handle)
		status, err := g.web.head(ctx, profile)
		switch {
		case errors.Is(err, domain.ErrRateLimited), ctx.Err() != nil:
			if err == nil {
				err = ctx.Err()
			}
			return domain.SourceResult{}, err
		case err != nil:
			payload.Checks = append(payload.Checks, domain.ProfileCheck{URL: profile, Status: "check_failed"})
		case status == http.StatusOK:
			payload.PotentialUsernames = append(payload.PotentialUsernames, handle)
			payload.ProfileURLs = append(payload.ProfileURLs, profile)
			payload.Checks = append(payload.Checks, domain.ProfileCheck{URL: profile, HTTPStatus: status, Status: "profile_found", Confidence: "Medium"})
		default:
			payload.Checks = append(payload.Checks, domain.ProfileCheck{URL: profile, HTTPStatus: status, Status: "not_found"})
		}
	}
	status := domain.StatusOK
	if len(payload.PotentialUsernames) == 0 {
		status = domain.StatusNoData
	}
	return domain.SourceResult{Status: status, Payload: domain.Payload{Social: payload}}, nil
}

// Reddit queries the public search JSON endpoint for posts mentioning the email.
type Reddit struct {
	web        *webClient
	baseURL    string
	maxResults int
}

func NewReddit(opts Options) *Reddit {
	limit := opts.MaxResults
	if limit <= 0 || limit > 5 {
		limit = 5
	}
	return &Reddit{web: newWebClient(opts), baseURL: "https://www.reddit.com", maxResults: limit}
}

func (r *Reddit) Name() string              { return "reddit" }
func (r *Reddit) Category() domain.Category { return domain.CategorySocial }
func (r *Reddit) Close() error              { return r.web.Close() }

func (r *Reddit) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Subreddit string `json:"subreddit"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	var listing redditListing
	status, err := r.web.getJSON(ctx, r.baseURL+"/search.json?q="+q(id.Value), nil, &listing)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK {
		return domain.SourceResult{}, fmt.Errorf("reddit search: HTTP %d", status)
	}

	payload := &domain.SocialPayload{
		Platform:   "Reddit",
		SearchType: id.Kind,
		Query:      id.Value,
		SearchLinks: map[string]string{
			"search": "https://www.reddit.com/search/?q=" + q(id.Value),
			"user":   "https://www.reddit.com/user/" + url.PathEscape(id.LocalPart()),
		},
	}
	for _, child := range listing.Data.Children {
		if len(payload.Posts) == r.maxResults {
			break
		}
		d := child.Data
		payload.Posts = append(payload.Posts, domain.Post{
			Title:     d.Title,
			Community: d.Subreddit,
			URL:       "https://reddit.com" + d.Permalink,
		})
	}
	res := domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Social: payload}}
	if len(payload.Posts) == 0 {
		res.Status = domain.StatusNoData
	}
	return res, nil
}

// LinkedIn derives candidate profile URLs and lightly probes the first few.
type LinkedIn struct {
	web     *webClient
	baseURL string
}

const linkedInProbes = 3

func NewLinkedIn(opts Options) *LinkedIn {
	return &LinkedIn{web: newWebClient(opts), baseURL: "https://www.linkedin.com"}
}

func (l *LinkedIn) Name() string              { return "linkedin" }
func (l *LinkedIn) Category() domain.Category { return domain.CategoryProfessional }
func (l *LinkedIn) Close() error              { return l.web.Close() }

func (l *LinkedIn) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

func (l *LinkedIn) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	local := id.LocalPart()
	company := companyLabel(id)
	handles := handleCandidates(local, 4)
	if company != "" {
		handles = append(handles, local+company, local+"-"+company)
	}
	payload := &domain.ProfessionalPayload{
		Platform:          "LinkedIn",
		SearchType:        id.Kind,
		Query:             id.Value,
		PotentialProfiles: profileURLs(l.baseURL+"/in/", handles),
		CompanySearch:     l.baseURL + "/company/" + url.PathEscape(company),
		SearchLinks: map[string]string{
			"people": l.baseURL + "/search/results/people/?keywords=" + q(local),
		},
		SearchSuggestions: []string{
			`Search LinkedIn for "` + local + `"`,
			"Look for employees at " + company,
		},
		Note: "LinkedIn has strict anti-scraping measures",
	}

probe:
	for _, profile := range payload.PotentialProfiles[:min(linkedInProbes, len(payload.PotentialProfiles))] {
		status, err := l.web.head(ctx, profile)
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			payload.VerifiedProfiles = append(payload.VerifiedProfiles, domain.ProfileCheck{
				URL:        profile,
				Status:     "Rate limited - manual check required",
				Confidence: "Unknown",
			})
			break probe
		case ctx.Err() != nil:
			return domain.SourceResult{}, ctx.Err()
		case err != nil:
			continue
		case status == http.StatusOK:
			payload.VerifiedProfiles = append(payload.VerifiedProfiles, domain.ProfileCheck{
				URL:        profile,
				HTTPStatus: status,
				Status:     "Profile exists",
				Confidence: "Medium",
			})
		}
	}
	return domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Professional: payload}}, nil
}
