package resource

import (
	"fmt"
	"strings"
	"sync"
)

// Pool bundles one Amount per Kind. It is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	amounts map[Kind]Amount
}

// NewPool returns a pool holding the minimum of every kind. cpuLimit bounds
// ObtainMaximum for the CPU kind; non-positive means runtime.NumCPU().
func NewPool(cpuLimit int) *Pool {
	p := &Pool{amounts: map[Kind]Amount{
		CPU: NewCPUAmount(cpuLimit),
		GPU: &GPUAmount{},
	}}
	p.ObtainMinimum()
	return p
}

// Amount returns a copy of the ledger for kind k.
func (p *Pool) Amount(k Kind) Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.amounts[k].Clone()
}

// Threads returns the CPU thread count.
func (p *Pool) Threads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.amounts[CPU].(*CPUAmount).Threads()
}

// SetThreads overwrites the CPU thread count.
func (p *Pool) SetThreads(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts[CPU].(*CPUAmount).Set(n)
}

func (p *Pool) each(fn func(a Amount)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range Kinds {
		fn(p.amounts[k])
	}
}

// Clear empties every kind.
func (p *Pool) Clear() { p.each(Amount.Clear) }

// ObtainMinimum sets every kind to its minimum.
func (p *Pool) ObtainMinimum() { p.each(Amount.ObtainMinimum) }

// ObtainMaximum sets every kind to its maximum.
func (p *Pool) ObtainMaximum() { p.each(Amount.ObtainMaximum) }

// IncreaseByRatio increases every kind by ratio of the matching kind in ref.
func (p *Pool) IncreaseByRatio(ratio float64, ref *Pool) {
	snapshot := ref.Clone()
	p.each(func(a Amount) {
		a.IncreaseByRatio(ratio, snapshot.amounts[a.Kind()])
	})
}

// CanAccommodate reports whether every kind covers the matching kind in req.
func (p *Pool) CanAccommodate(req *Pool) bool {
	snapshot := req.Clone()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canAccommodateLocked(snapshot)
}

func (p *Pool) canAccommodateLocked(req *Pool) bool {
	for _, k := range Kinds {
		if !p.amounts[k].CanAccommodate(req.amounts[k]) {
			return false
		}
	}
	return true
}

// Reserve subtracts req from the pool if every kind can accommodate it. It
// returns false and leaves the pool untouched otherwise.
func (p *Pool) Reserve(req *Pool) bool {
	snapshot := req.Clone()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.canAccommodateLocked(snapshot) {
		return false
	}
	for _, k := range Kinds {
		p.amounts[k].Reserve(snapshot.amounts[k])
	}
	return true
}

// Collect adds ret back into the pool.
func (p *Pool) Collect(ret *Pool) {
	snapshot := ret.Clone()
	p.each(func(a Amount) {
		a.Collect(snapshot.amounts[a.Kind()])
	})
}

// HasResource reports whether any kind holds something.
func (p *Pool) HasResource() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range Kinds {
		if p.amounts[k].HasResource() {
			return true
		}
	}
	return false
}

// AllocateFor applies every kind that holds resources onto t.
func (p *Pool) AllocateFor(t Target) error {
	snapshot := p.Clone()
	for _, k := range Kinds {
		a := snapshot.amounts[k]
		if !a.HasResource() {
			continue
		}
		if err := a.AllocateFor(t); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := &Pool{amounts: make(map[Kind]Amount, len(p.amounts))}
	for k, a := range p.amounts {
		cp.amounts[k] = a.Clone()
	}
	return cp
}

func (p *Pool) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	parts := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		switch a := p.amounts[k].(type) {
		case *CPUAmount:
			parts = append(parts, fmt.Sprintf("%s=%d", k, a.Threads()))
		default:
			parts = append(parts, fmt.Sprintf("%s=%t", k, a.HasResource()))
		}
	}
	return strings.Join(parts, " ")
}
