package genvertex

// disjointSet is a union-find forest over 0..n-1. The root of every set is
// its smallest member, which keeps component identity independent of the
// order in which unions happen.
type disjointSet struct {
	parent []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent}
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra == rb:
	case ra < rb:
		d.parent[rb] = ra
	default:
		d.parent[ra] = rb
	}
}
