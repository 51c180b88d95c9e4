package homsearch

import "fmt"

// Graph is the user-facing input graph: a dense set of vertices with
// optional names, optional integer edge labels, and a directedness
// flag. Self-loops are allowed. Undirected edges are stored in both
// directions.
type Graph struct {
	n        int
	directed bool
	names    []string
	adj      []map[int]struct{}
	labels   map[[2]int]int
}

// NewGraph returns a graph with n vertices and no edges.
func NewGraph(n int, directed bool) *Graph {
	g := &Graph{
		n:        n,
		directed: directed,
		names:    make([]string, n),
		adj:      make([]map[int]struct{}, n),
	}
	for i := range g.adj {
		g.adj[i] = make(map[int]struct{})
		g.names[i] = fmt.Sprintf("%d", i)
	}
	return g
}

// Size returns the number of vertices.
func (g *Graph) Size() int { return g.n }

// Directed reports whether the graph is directed.
func (g *Graph) Directed() bool { return g.directed }

// AddEdge adds the edge u->v, and v->u as well when the graph is
// undirected.
func (g *Graph) AddEdge(u, v int) {
	g.adj[u][v] = struct{}{}
	if !g.directed {
		g.adj[v][u] = struct{}{}
	}
}

// HasEdge reports whether the edge u->v is present.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.adj[u][v]
	return ok
}

// Neighbours calls f for every v with an edge u->v.
func (g *Graph) Neighbours(u int, f func(v int)) {
	for v := range g.adj[u] {
		f(v)
	}
}

// Degree returns the out-degree of u (total degree when undirected).
func (g *Graph) Degree(u int) int { return len(g.adj[u]) }

// SetName assigns an external name to vertex v.
func (g *Graph) SetName(v int, name string) { g.names[v] = name }

// Name returns the external name of vertex v.
func (g *Graph) Name(v int) string { return g.names[v] }

// SetEdgeLabel labels the edge u->v. Labelling any edge makes the
// graph edge-labelled; edge-labelled graphs are treated as directed
// by the solver, so the edge itself is added in the stored direction
// only if not already present.
func (g *Graph) SetEdgeLabel(u, v, label int) {
	if g.labels == nil {
		g.labels = make(map[[2]int]int)
	}
	g.labels[[2]int{u, v}] = label
	g.adj[u][v] = struct{}{}
}

// HasEdgeLabels reports whether any edge carries a label.
func (g *Graph) HasEdgeLabels() bool { return len(g.labels) > 0 }

// EdgeLabel returns the label on u->v, or -1 when unlabelled.
func (g *Graph) EdgeLabel(u, v int) int {
	if l, ok := g.labels[[2]int{u, v}]; ok {
		return l
	}
	return -1
}
