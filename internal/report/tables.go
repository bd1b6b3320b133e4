package report

import (
	"fmt"
	"sort"
	"strings"
)

const detailWidth = 60

// renderTables writes the markdown and plain-text reports. Both share one
// layout; only headings and table style differ.
func renderTables(v view, mode tableMode) string {
	var b strings.Builder
	heading := func(level int, title string) {
		if mode == modeMarkdown {
			fmt.Fprintf(&b, "\n%s %s\n\n", strings.Repeat("#", level), title)
			return
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", strings.ToUpper(title), strings.Repeat("=", len(title)))
	}
	item := func(label string, value any) {
		if mode == modeMarkdown {
			fmt.Fprintf(&b, "- **%s:** %v\n", label, value)
			return
		}
		fmt.Fprintf(&b, "%-24s %v\n", label+":", value)
	}

	snap := v.Snapshot
	if mode == modeMarkdown {
		b.WriteString("# Footprint Investigation Report\n\n")
		fmt.Fprintf(&b, "**Generated:** %s\n", v.Generated)
	} else {
		b.WriteString("FOOTPRINT INVESTIGATION REPORT\n")
		fmt.Fprintf(&b, "Generated: %s\n", v.Generated)
	}

	heading(2, "Target Information")
	if snap.TargetInfo.Email != "" {
		item("Email", snap.TargetInfo.Email)
	}
	if snap.TargetInfo.Phone != "" {
		item("Phone", snap.TargetInfo.Phone)
	}
	item("Investigation", snap.ID)

	heading(2, "Investigation Summary")
	item("Platforms Searched", v.Overview.PlatformsSearched)
	item("Breaches Found", v.Overview.BreachesFound)
	item("Social Media Presence", v.Overview.SocialPresence)
	item("Professional Presence", v.Overview.ProfessionalPresence)
	item("Failed Sources", v.Overview.FailedSources)
	item("Risk Level", v.Overview.RiskLevel)

	heading(2, "Sources")
	sources := newGrid(mode, "Category", "Source", "Status", "Detail")
	sources.wrap(4, detailWidth)
	for _, s := range v.Sources {
		status := s.Status
		if s.Failed {
			status = strings.ToUpper(status)
		}
		sources.row(s.Category, s.Source, status, s.Detail)
	}
	b.WriteString(sources.String())
	b.WriteString("\n")

	if len(snap.Breaches.Breaches) > 0 {
		heading(2, "Data Breaches")
		breaches := newGrid(mode, "Name", "Date", "Domain", "Compromised Data")
		breaches.wrap(4, detailWidth)
		for _, br := range snap.Breaches.Breaches {
			name := br.Name
			if name == "" {
				name = br.Database
			}
			breaches.row(orUnknown(name), orUnknown(br.BreachDate), orUnknown(br.Domain), strings.Join(br.DataClasses, ", "))
		}
		b.WriteString(breaches.String())
		b.WriteString("\n")
	}

	for _, section := range []struct {
		title  string
		groups []profileGroup
	}{
		{"Social Media Presence", v.Social},
		{"Professional Presence", v.Professional},
	} {
		if len(section.groups) == 0 {
			continue
		}
		heading(2, section.title)
		profiles := newGrid(mode, "Platform", "Profile", "Status")
		for _, g := range section.groups {
			for _, url := range g.Profiles {
				profiles.row(g.Platform, url, "candidate")
			}
			for _, check := range g.Verified {
				profiles.row(g.Platform, check.URL, check.Status)
			}
		}
		b.WriteString(profiles.String())
		b.WriteString("\n")
	}

	sum := snap.Correlations.Summary
	heading(2, "Data Correlations")
	item("Confidence Level", orUnknown(sum.ConfidenceLevel))
	item("Overall Confidence", fmt.Sprintf("%.1f", snap.Correlations.ConfidenceScores.Overall))
	item("Cross-platform Matches", sum.CrossPlatformMatches)
	item("Total Usernames Found", sum.TotalUsernames)
	if len(v.Usernames) > 0 {
		b.WriteString("\n")
		users := newGrid(mode, "Username", "Platforms")
		for _, u := range v.Usernames {
			users.row(u.Value, strings.Join(u.Platforms, ", "))
		}
		b.WriteString(users.String())
		b.WriteString("\n")
	}
	list := func(title string, entries []string) {
		if len(entries) == 0 {
			return
		}
		heading(3, title)
		for _, e := range entries {
			if mode == modeMarkdown {
				fmt.Fprintf(&b, "- %s\n", e)
			} else {
				fmt.Fprintf(&b, "  * %s\n", e)
			}
		}
	}
	list("Key Findings", sum.KeyFindings)
	list("Recommendations", sum.Recommendations)
	list("Warnings", snap.Warnings)

	b.WriteString("\nThis report contains information gathered from publicly available sources only.\n")
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
