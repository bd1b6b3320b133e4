package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footprint/internal/config"
	"footprint/internal/domain"
)

var (
	email = domain.Identifier{Kind: domain.KindEmail, Value: "jane.doe@acme.com"}
	phone = domain.Identifier{Kind: domain.KindPhone, Value: "+16502530000"}
)

func testOptions() Options {
	return Options{UserAgents: []string{"footprint-test"}}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGitHub_VerifiesHandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "footprint-test", r.Header.Get("User-Agent"))
		if r.URL.Path == "/jane.doe" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGitHub(testOptions())
	g.baseURL = srv.URL
	defer g.Close()

	res, err := g.Invoke(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOK, res.Status)
	require.NotNil(t, res.Payload.Social)
	assert.Equal(t, []string{"jane.doe"}, res.Payload.Social.PotentialUsernames)
	assert.Equal(t, []string{srv.URL + "/jane.doe"}, res.Payload.Social.ProfileURLs)
	require.Len(t, res.Payload.Social.Checks, 2)
	assert.Equal(t, "not_found", res.Payload.Social.Checks[1].Status)
}

func TestGitHub_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGitHub(testOptions())
	g.baseURL = srv.URL

	_, err := g.Invoke(context.Background(), email)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestReddit_CapsPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "jane.doe@acme.com", r.URL.Query().Get("q"))
		var listing redditListing
		for i := 0; i < 7; i++ {
			child := struct {
				Data struct {
					Title     string `json:"title"`
					Subreddit string `json:"subreddit"`
					Permalink string `json:"permalink"`
				} `json:"data"`
			}{}
			child.Data.Title = fmt.Sprintf("post %d", i)
			child.Data.Subreddit = "golang"
			child.Data.Permalink = fmt.Sprintf("/r/golang/%d", i)
			listing.Data.Children = append(listing.Data.Children, child)
		}
		writeJSON(t, w, listing)
	}))
	defer srv.Close()

	r := NewReddit(testOptions())
	r.baseURL = srv.URL

	res, err := r.Invoke(context.Background(), email)
	require.NoError(t, err)

	require.Len(t, res.Payload.Social.Posts, 5)
	assert.Equal(t, domain.Post{Title: "post 0", Community: "golang", URL: "https://reddit.com/r/golang/0"}, res.Payload.Social.Posts[0])
}

func TestReddit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewReddit(testOptions())
	r.baseURL = srv.URL

	_, err := r.Invoke(context.Background(), email)
	assert.EqualError(t, err, "reddit search: HTTP 403")
}

func TestLinkedIn_StopsProbingWhenThrottled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(999)
	}))
	defer srv.Close()

	l := NewLinkedIn(testOptions())
	l.baseURL = srv.URL

	res, err := l.Invoke(context.Background(), email)
	require.NoError(t, err)

	p := res.Payload.Professional
	require.NotNil(t, p)
	assert.EqualValues(t, 1, hits.Load())
	require.Len(t, p.VerifiedProfiles, 1)
	assert.Equal(t, "Unknown", p.VerifiedProfiles[0].Confidence)
	assert.Equal(t, srv.URL+"/company/acme", p.CompanySearch)
	assert.Contains(t, p.PotentialProfiles, srv.URL+"/in/jane.doe")
	assert.Contains(t, p.PotentialProfiles, srv.URL+"/in/jane.doe-acme")
}

func TestHIBP_NeedsKey(t *testing.T) {
	res, err := NewHIBP(testOptions(), "").Invoke(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNeedsKey, res.Status)
	assert.Contains(t, res.Warning, "credentials required")
}

func TestHIBP_BreachesAndPastes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("hibp-api-key"))
		switch r.URL.Path {
		case "/breachedaccount/jane.doe@acme.com":
			writeJSON(t, w, []map[string]any{
				{"Name": "Adobe", "Domain": "adobe.com", "BreachDate": "2013-10-04", "PwnCount": 152445165, "DataClasses": []string{"Email addresses", "Passwords"}},
			})
		case "/pasteaccount/jane.doe@acme.com":
			writeJSON(t, w, []map[string]any{{"Source": "Pastebin", "Id": "8Q0BvKD8", "EmailCount": 139}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	h := NewHIBP(testOptions(), "secret")
	h.baseURL = srv.URL

	res, err := h.Invoke(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOK, res.Status)
	require.Len(t, res.Payload.Breach.Breaches, 1)
	b := res.Payload.Breach.Breaches[0]
	assert.Equal(t, "Adobe", b.Name)
	assert.Equal(t, "2013-10-04", b.BreachDate)
	assert.EqualValues(t, 152445165, b.PwnCount)
	assert.Equal(t, []domain.Paste{{Source: "Pastebin", ID: "8Q0BvKD8", EmailCount: 139}}, res.Payload.Breach.Pastes)
}

func TestHIBP_NotFoundIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := NewHIBP(testOptions(), "secret")
	h.baseURL = srv.URL

	res, err := h.Invoke(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNoData, res.Status)
	assert.NotNil(t, res.Payload.Breach.Breaches)
}

func TestDehashed_BasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "analyst", user)
		assert.Equal(t, "k3y", pass)
		assert.Equal(t, "email:jane.doe@acme.com", r.URL.Query().Get("query"))
		writeJSON(t, w, map[string]any{
			"success": true,
			"entries": []map[string]any{{"database_name": "Collection1", "email": "jane.doe@acme.com", "username": "jdoe", "password": "hunter2"}},
		})
	}))
	defer srv.Close()

	d := NewDehashed(testOptions(), "analyst", "k3y")
	d.baseURL = srv.URL

	res, err := d.Invoke(context.Background(), email)
	require.NoError(t, err)

	require.Len(t, res.Payload.Breach.Breaches, 1)
	assert.Equal(t, domain.Breach{Name: "Collection1", Database: "Collection1", Email: "jane.doe@acme.com", Username: "jdoe"}, res.Payload.Breach.Breaches[0])

	_, err = NewDehashed(testOptions(), "analyst", "").Invoke(context.Background(), email)
	assert.NoError(t, err)
}

func TestPhoneAnalysis(t *testing.T) {
	p := NewPhoneAnalysis()
	assert.False(t, p.Supports(domain.KindEmail))

	res, err := p.Invoke(context.Background(), phone)
	require.NoError(t, err)

	info := res.Payload.Phone
	require.NotNil(t, info)
	assert.True(t, info.Validation.IsValid)
	assert.Equal(t, "+16502530000", info.Validation.E164)
	assert.Equal(t, "Fixed Line or Mobile", info.Validation.NumberType)
	assert.EqualValues(t, 1, info.CountryCode)
	assert.EqualValues(t, 6502530000, info.NationalNumber)
	assert.Equal(t, "US", info.Region)
	assert.Contains(t, info.Timezones, "America/Los_Angeles")
	assert.Contains(t, info.CountryLinks, "fastpeoplesearch")
	assert.Contains(t, info.LookupLinks, "truecaller")
	assert.NotEmpty(t, info.Risk.Level)
}

func TestAssessRisk(t *testing.T) {
	r := assessRisk(&domain.PhonePayload{
		Validation: domain.PhoneValidation{IsValid: false, NumberType: "VoIP"},
		Carrier:    unknown,
		Location:   unknown,
	})
	assert.Equal(t, 9, r.Score)
	assert.Equal(t, "Very High", r.Level)
	assert.Contains(t, r.Factors, "Invalid phone number")

	r = assessRisk(&domain.PhonePayload{
		Validation: domain.PhoneValidation{IsValid: true, NumberType: "Mobile"},
		Carrier:    "Verizon",
		Location:   "Mountain View, CA",
	})
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, "Low", r.Level)
}

func TestSearch_EmailLinksAndInstantAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		writeJSON(t, w, map[string]any{
			"Heading":     "Jane Doe",
			"AbstractURL": "https://example.org/jane",
			"RelatedTopics": []map[string]any{
				{"Text": "Jane Doe - Engineer", "FirstURL": "https://example.org/a"},
				{"Topics": []map[string]any{{"Text": "Nested", "FirstURL": "https://example.org/b"}}},
			},
		})
	}))
	defer srv.Close()

	s := NewSearch(testOptions())
	s.ddgURL = srv.URL + "/"

	res, err := s.Invoke(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, "email", res.Source)
	p := res.Payload.Search
	require.NotNil(t, p)
	assert.Equal(t, `"jane.doe@acme.com"`, p.Dorks[0])
	assert.Len(t, p.Links, 6)
	assert.Equal(t, "Google", p.Links[0].Engine)
	assert.Len(t, p.Hits, 6)
	assert.Equal(t, domain.SearchHit{Engine: "DuckDuckGo", Title: "Nested", URL: "https://example.org/b"}, p.Hits[2])
}

func TestSearch_PhoneKeyedByKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSearch(testOptions())
	s.ddgURL = srv.URL + "/"

	res, err := s.Invoke(context.Background(), phone)
	require.NoError(t, err)

	assert.Equal(t, "phone", res.Source)
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Empty(t, res.Payload.Search.Hits)
	assert.Contains(t, res.Payload.Search.Dorks, `"16502530000" site:facebook.com`)
	assert.Contains(t, res.Payload.Search.Dorks, `"(650) 253-0000"`)
}

func TestEmailDorks(t *testing.T) {
	dorks := EmailDorks("jane.doe@acme.com")

	assert.Len(t, dorks, 22)
	assert.Contains(t, dorks, `"jane.doe" site:acme.com`)
	assert.Contains(t, dorks, `"jane.doe" "acme"`)
	assert.Contains(t, dorks, `intext:"jane.doe@acme.com" site:pastebin.com`)
}

type fakeResolver struct{}

func (fakeResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}, {IP: net.ParseIP("2606:2800:220:1::")}}, nil
}

func (fakeResolver) LookupMX(context.Context, string) ([]*net.MX, error) {
	return []*net.MX{{Host: "mx.acme.com.", Pref: 10}}, nil
}

func (fakeResolver) LookupNS(context.Context, string) ([]*net.NS, error) {
	return nil, &net.DNSError{Err: "no such host", Name: "acme.com", IsNotFound: true}
}

func (fakeResolver) LookupTXT(context.Context, string) ([]string, error) {
	return []string{"v=spf1 -all"}, nil
}

func TestDNS_RecordsAndRegistration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain/acme.com", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"ldhName": "ACME.COM",
			"events": []map[string]any{
				{"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
				{"eventAction": "expiration", "eventDate": "2030-08-13T04:00:00Z"},
			},
			"entities": []map[string]any{{
				"roles":      []string{"registrar"},
				"vcardArray": []any{"vcard", []any{[]any{"version", map[string]any{}, "text", "4.0"}, []any{"fn", map[string]any{}, "text", "Example Registrar"}}},
			}},
		})
	}))
	defer srv.Close()

	d := NewDNS(testOptions())
	d.resolver = fakeResolver{}
	d.rdapURL = srv.URL + "/domain/"

	res, err := d.Invoke(context.Background(), email)
	require.NoError(t, err)

	raw := res.Payload.Raw
	records := raw["records"].(map[string]any)
	assert.Equal(t, []string{"93.184.216.34"}, records["A"])
	assert.Equal(t, []string{"10 mx.acme.com"}, records["MX"])
	assert.NotContains(t, records, "NS")
	assert.Contains(t, raw["errors"], "NS")

	whois := raw["whois"].(map[string]any)
	assert.Equal(t, "acme.com", whois["domain_name"])
	assert.Equal(t, "Example Registrar", whois["registrar"])
	assert.Equal(t, "1995-08-14T04:00:00Z", whois["creation_date"])
}

func TestEmailRepAndHunter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jane.doe@acme.com":
			assert.Equal(t, "rep-key", r.Header.Get("Key"))
			writeJSON(t, w, map[string]any{"reputation": "high", "suspicious": false})
		case "/email-verifier":
			assert.Equal(t, "hunter-key", r.URL.Query().Get("api_key"))
			writeJSON(t, w, map[string]any{"data": map[string]any{"status": "valid", "score": 91}})
		}
	}))
	defer srv.Close()

	rep := NewEmailRep(testOptions(), "rep-key")
	rep.baseURL = srv.URL
	res, err := rep.Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "high", res.Payload.Raw["reputation"])

	hunter := NewHunter(testOptions(), "hunter-key")
	hunter.baseURL = srv.URL
	res, err = hunter.Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "valid", res.Payload.Raw["status"])

	res, err = NewHunter(testOptions(), "").Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsKey, res.Status)
}

func TestLinkConnectors(t *testing.T) {
	byName := map[string]*linkConnector{}
	for _, group := range [][]*linkConnector{socialEmailLinks(), socialPhoneLinks(), professionalLinks(), breachLinks()} {
		for _, l := range group {
			_, dup := byName[l.name]
			require.False(t, dup, "duplicate connector name %s", l.name)
			byName[l.name] = l
		}
	}

	res, err := byName["crunchbase"].Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "https://www.crunchbase.com/organization/acme", res.Payload.Professional.CompanySearch)

	res, err = byName["behance"].Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.behance.net/jane.doe", "https://www.behance.net/janedoe"}, res.Payload.Professional.PotentialProfiles)

	res, err = byName["whatsapp"].Invoke(context.Background(), phone)
	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/16502530000", res.Payload.Social.SearchLinks["chat"])
	assert.True(t, byName["whatsapp"].Supports(domain.KindPhone))
	assert.False(t, byName["whatsapp"].Supports(domain.KindEmail))

	res, err = byName["leakcheck"].Invoke(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBreaches, res.Category)
	assert.NotNil(t, res.Payload.Breach.Breaches)
}

func TestBuild_RespectsToggles(t *testing.T) {
	names := func(cfg config.Config) map[string]bool {
		out := map[string]bool{}
		for _, c := range Build(cfg, zap.NewNop()) {
			out[c.Name()] = true
		}
		return out
	}

	off := names(config.Config{})
	assert.True(t, off["github"])
	assert.True(t, off["phone_analysis"])
	assert.False(t, off["hibp"])
	assert.False(t, off["search"])

	on := names(config.Config{Features: config.Features{HIBP: true, EmailRep: true, Hunter: true, DNS: true, Search: true}})
	for _, n := range []string{"hibp", "emailrep", "hunter", "dns", "search"} {
		assert.True(t, on[n], n)
	}
}
