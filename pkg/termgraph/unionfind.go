package termgraph

// unionFind is a disjoint-set forest over node IDs with path halving and
// union by size. On equal sizes the lower ID becomes the root, so classes
// have stable representatives for a given event order.
type unionFind struct {
	parent []NodeID
	size   []uint32
}

// add registers a new singleton. IDs are added in order.
func (u *unionFind) add(id NodeID) {
	u.parent = append(u.parent, id)
	u.size = append(u.size, 1)
}

func (u *unionFind) find(id NodeID) NodeID {
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

// union merges the classes of a and b and reports whether they were distinct.
func (u *unionFind) union(a, b NodeID) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	if u.size[ra] < u.size[rb] || (u.size[ra] == u.size[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	return true
}
