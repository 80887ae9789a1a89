package domain

// Node is one vertex of a roadmap tree. The root and chapter nodes carry
// Children; module (leaf) nodes carry ModuleDescription and Link instead.
type Node struct {
	Name              string `json:"name"`
	ModuleDescription string `json:"moduleDescription,omitempty"`
	Link              string `json:"link,omitempty"`
	Children          []Node `json:"children,omitempty"`
}

// ModuleCount returns the number of modules below a root node, i.e. the
// grandchildren of n.
func (n Node) ModuleCount() int {
	total := 0
	for _, ch := range n.Children {
		total += len(ch.Children)
	}
	return total
}
