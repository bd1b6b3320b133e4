package correlator

import (
	"sort"

	"footprint/internal/domain"
)

const (
	targetNodeID = "target"

	targetNodeSize   = 30
	usernameNodeSize = 20
	platformNodeSize = 15

	edgeUsesUsername = "uses_username"
	edgeFoundOn      = "found_on"

	graphLayout = "force-directed"
)

// relationshipGraph links the target to every username and each username to
// the platforms it was seen on.
func relationshipGraph(usernames map[string]domain.Username) domain.RelationshipGraph {
	g := domain.RelationshipGraph{
		Nodes:  []domain.GraphNode{{ID: targetNodeID, Label: "Target", Kind: domain.NodeTarget, Size: targetNodeSize}},
		Edges:  []domain.GraphEdge{},
		Layout: graphLayout,
	}
	platforms := map[string]struct{}{}
	for _, value := range sortedUsernames(usernames) {
		u := usernames[value]
		id := "username_" + value
		g.Nodes = append(g.Nodes, domain.GraphNode{
			ID:        id,
			Label:     value,
			Kind:      domain.NodeUsername,
			Size:      usernameNodeSize,
			Platforms: u.Platforms,
		})
		g.Edges = append(g.Edges, domain.GraphEdge{From: targetNodeID, To: id, Label: edgeUsesUsername})
		for _, p := range u.Platforms {
			g.Edges = append(g.Edges, domain.GraphEdge{From: id, To: "platform_" + p, Label: edgeFoundOn})
			platforms[p] = struct{}{}
		}
	}
	for _, p := range sortedKeys(platforms) {
		g.Nodes = append(g.Nodes, domain.GraphNode{
			ID:    "platform_" + p,
			Label: titleCase(p),
			Kind:  domain.NodePlatform,
			Size:  platformNodeSize,
		})
	}
	return g
}

func sortedUsernames(m map[string]domain.Username) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
