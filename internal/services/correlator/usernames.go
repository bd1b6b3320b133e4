package correlator

import (
	"regexp"
	"sort"
	"strings"

	"footprint/internal/domain"
)

const (
	seedSource   = "email"
	seedPlatform = "email"
)

// profilePatterns pull a handle out of a profile URL. Order matters: the
// first pattern that matches wins.
var profilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/([a-zA-Z0-9._-]+)/?$`),
	regexp.MustCompile(`/in/([a-zA-Z0-9._-]+)`),
	regexp.MustCompile(`/@([a-zA-Z0-9._-]+)`),
	regexp.MustCompile(`/user/([a-zA-Z0-9._-]+)`),
}

// UsernameFromURL returns the handle a profile URL points at, or "".
func UsernameFromURL(url string) string {
	for _, re := range profilePatterns {
		if m := findSubmatch(re, url); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// Variations returns the fixed set of spellings derived from a handle.
func Variations(username string) []string {
	return sortedSet([]string{
		username,
		strings.ReplaceAll(username, ".", ""),
		strings.ReplaceAll(username, "_", ""),
		strings.ReplaceAll(username, "-", ""),
		strings.ReplaceAll(username, ".", "_"),
		strings.ReplaceAll(username, "_", "."),
		strings.ToLower(username),
		strings.ToUpper(username),
	})
}

func normalizeUsername(u string) string {
	return strings.TrimPrefix(strings.TrimSpace(u), "@")
}

// usernameSet accumulates sources and platforms per handle.
type usernameSet map[string]*usernameEntry

type usernameEntry struct {
	sources   map[string]struct{}
	platforms map[string]struct{}
}

func (s usernameSet) add(username, source, platform string) {
	key := normalizeUsername(username)
	if key == "" {
		return
	}
	e, ok := s[key]
	if !ok {
		e = &usernameEntry{sources: map[string]struct{}{}, platforms: map[string]struct{}{}}
		s[key] = e
	}
	e.sources[source] = struct{}{}
	e.platforms[platform] = struct{}{}
}

// usernames seeds the set with the target email's local part, then collects
// every reported handle and every handle derivable from a profile URL.
func (e *Engine) usernames(agg domain.AggregateRecord) map[string]domain.Username {
	set := usernameSet{}
	target := domain.Identifier{Kind: domain.KindEmail, Value: agg.Target.Email}
	if base := target.LocalPart(); base != "" {
		set.add(base, seedSource, seedPlatform)
	}
	agg.Each(func(res domain.SourceResult) {
		source := string(res.Category)
		for _, u := range res.Payload.Usernames() {
			set.add(u, source, res.Source)
		}
		for _, url := range res.Payload.ProfileURLs() {
			if u := UsernameFromURL(url); u != "" {
				set.add(u, source, res.Source)
			}
		}
	})

	out := make(map[string]domain.Username, len(set))
	for value, entry := range set {
		out[value] = domain.Username{
			Value:      value,
			Sources:    sortedKeys(entry.sources),
			Platforms:  sortedKeys(entry.platforms),
			Variations: Variations(value),
		}
	}
	return out
}

// crossPlatformMatches looks for the email local part, verbatim, among the
// handles and inside the profile URLs every source reported. Spelling
// variations do not participate.
func crossPlatformMatches(agg domain.AggregateRecord) domain.CrossPlatformMatches {
	matches := domain.CrossPlatformMatches{
		UsernameMatches: map[string][]string{},
		ProfileMatches:  map[string][]domain.ProfileMatch{},
	}
	target := domain.Identifier{Kind: domain.KindEmail, Value: agg.Target.Email}
	base := target.LocalPart()
	if base == "" {
		return matches
	}

	platforms := map[string]struct{}{}
	seenProfiles := map[domain.ProfileMatch]struct{}{}
	var profiles []domain.ProfileMatch
	agg.Each(func(res domain.SourceResult) {
		for _, u := range res.Payload.Usernames() {
			if normalizeUsername(u) == base {
				platforms[res.Source] = struct{}{}
			}
		}
		for _, url := range res.Payload.ProfileURLs() {
			if !strings.Contains(url, base) {
				continue
			}
			m := domain.ProfileMatch{Platform: res.Source, URL: url}
			if _, dup := seenProfiles[m]; !dup {
				seenProfiles[m] = struct{}{}
				profiles = append(profiles, m)
			}
		}
	})

	if len(platforms) > 0 {
		matches.UsernameMatches[base] = sortedKeys(platforms)
	}
	if len(profiles) > 0 {
		sort.Slice(profiles, func(i, j int) bool {
			if profiles[i].Platform != profiles[j].Platform {
				return profiles[i].Platform < profiles[j].Platform
			}
			return profiles[i].URL < profiles[j].URL
		})
		matches.ProfileMatches[base] = profiles
	}
	return matches
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSet(items []string) []string {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return sortedKeys(set)
}
