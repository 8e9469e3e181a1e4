// Package sparse implements a set of small integers with constant time
// insert and lookup, used to mark visited instructions.
package sparse

// Set holds values in [0, capacity). The dense slice lists members in
// insertion order; sparse maps a value to its index in dense. Entries of
// sparse may be stale, so membership is confirmed through dense.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New returns an empty set for values below capacity.
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds v and reports whether it was absent.
func (s *Set) Insert(v uint32) bool {
	if s.Contains(v) {
		return false
	}
	s.sparse[v] = uint32(len(s.dense))
	s.dense = append(s.dense, v)
	return true
}

// Contains reports whether v is a member. Values outside the capacity are
// never members.
func (s *Set) Contains(v uint32) bool {
	if int(v) >= len(s.sparse) {
		return false
	}
	i := s.sparse[v]
	return int(i) < len(s.dense) && s.dense[i] == v
}
