package node

import "maps"

// Metadata is the optional request bundle that travels with a task.
type Metadata struct {
	// Priority, when set, overrides the scheduler's submission counter.
	// Lower values run first.
	Priority *int64
	// AutoPropagate makes a finished task push to its consumers without the
	// submitter waiting for them.
	AutoPropagate bool
	// Values carries free-form request data to Execute.
	Values map[string]any
}

// Clone returns a copy that can be modified independently. Clone of nil is
// an empty Metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return &Metadata{}
	}
	cp := &Metadata{AutoPropagate: m.AutoPropagate, Values: maps.Clone(m.Values)}
	if m.Priority != nil {
		p := *m.Priority
		cp.Priority = &p
	}
	return cp
}

// WithPriority returns a copy carrying an explicit priority.
func (m *Metadata) WithPriority(p int64) *Metadata {
	cp := m.Clone()
	cp.Priority = &p
	return cp
}

// Propagating reports whether m asks for auto-propagation. It is safe on nil.
func (m *Metadata) Propagating() bool {
	return m != nil && m.AutoPropagate
}
