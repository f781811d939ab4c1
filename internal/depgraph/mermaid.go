package depgraph

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a mermaid flowchart, intra-repo edges solid
// and external ones dashed. Empty graphs render a single placeholder node.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	if len(g.Edges) == 0 {
		b.WriteString("    root[\"no dependencies detected\"]\n")
		return b.String()
	}
	for _, e := range g.Edges {
		arrow := "-->"
		if e.Kind == KindExternal {
			arrow = "-.->"
		}
		fmt.Fprintf(&b, "    %s[\"%s\"] %s %s[\"%s\"]\n",
			mermaidID(e.From), e.From, arrow, mermaidID(e.To), e.To)
	}
	return b.String()
}

// mermaidID flattens a module path into a node identifier mermaid accepts.
func mermaidID(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
