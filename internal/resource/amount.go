package resource

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

// ErrUnimplemented is returned by operations on resource kinds that exist
// structurally but have no backing implementation.
var ErrUnimplemented = errors.New("resource: capability not implemented")

// Kind identifies a processing-unit kind.
type Kind int

const (
	// CPU is measured in worker threads.
	CPU Kind = iota
	// GPU is a placeholder kind that never holds resources.
	GPU
)

// Kinds lists every kind a Pool carries, in a stable order.
var Kinds = []Kind{CPU, GPU}

func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target receives an allocation. Stages implement it to size their internal
// parallelism.
type Target interface {
	ConfigureThreadCount(n int)
}

// Amount is the ledger for one resource kind.
type Amount interface {
	Kind() Kind
	// Clear sets the amount to zero.
	Clear()
	// ObtainMinimum sets the smallest viable amount.
	ObtainMinimum()
	// ObtainMaximum sets the largest amount the platform offers.
	ObtainMaximum()
	// IncreaseByRatio adds ratio × ref, floored to one unit.
	IncreaseByRatio(ratio float64, ref Amount)
	// AllocateFor applies the held amount onto t.
	AllocateFor(t Target) error
	// CanAccommodate reports whether the held amount covers req.
	CanAccommodate(req Amount) bool
	// Reserve subtracts req. Callers check CanAccommodate first.
	Reserve(req Amount)
	// Collect adds ret back.
	Collect(ret Amount)
	// HasResource reports whether anything is held.
	HasResource() bool
	Clone() Amount
}

// CPUAmount counts CPU threads.
type CPUAmount struct {
	threads int
	// limit bounds ObtainMaximum; non-positive means runtime.NumCPU().
	limit int
}

// NewCPUAmount returns an empty CPU ledger whose maximum is limit threads.
func NewCPUAmount(limit int) *CPUAmount {
	return &CPUAmount{limit: limit}
}

func (c *CPUAmount) Kind() Kind { return CPU }

// Threads returns the held thread count.
func (c *CPUAmount) Threads() int { return c.threads }

// Set overwrites the held thread count.
func (c *CPUAmount) Set(threads int) {
	c.threads = max(threads, 0)
}

// Limit returns the maximum obtainable thread count.
func (c *CPUAmount) Limit() int {
	if c.limit > 0 {
		return c.limit
	}
	return runtime.NumCPU()
}

func (c *CPUAmount) Clear() { c.threads = 0 }

func (c *CPUAmount) ObtainMinimum() { c.threads = 1 }

func (c *CPUAmount) ObtainMaximum() { c.threads = c.Limit() }

func (c *CPUAmount) IncreaseByRatio(ratio float64, ref Amount) {
	r, ok := ref.(*CPUAmount)
	if !ok {
		return
	}
	c.threads += max(1, int(math.Round(ratio*float64(r.threads))))
}

func (c *CPUAmount) AllocateFor(t Target) error {
	t.ConfigureThreadCount(c.threads)
	return nil
}

func (c *CPUAmount) CanAccommodate(req Amount) bool {
	r, ok := req.(*CPUAmount)
	if !ok {
		return false
	}
	return c.threads >= r.threads
}

func (c *CPUAmount) Reserve(req Amount) {
	if r, ok := req.(*CPUAmount); ok {
		c.threads -= r.threads
	}
}

func (c *CPUAmount) Collect(ret Amount) {
	if r, ok := ret.(*CPUAmount); ok {
		c.threads += r.threads
	}
}

func (c *CPUAmount) HasResource() bool { return c.threads > 0 }

func (c *CPUAmount) Clone() Amount {
	cp := *c
	return &cp
}

// GPUAmount stands in for GPU accounting, which is not implemented. It never
// holds anything and never has a maximum.
type GPUAmount struct{}

func (g *GPUAmount) Kind() Kind                          { return GPU }
func (g *GPUAmount) Clear()                              {}
func (g *GPUAmount) ObtainMinimum()                      {}
func (g *GPUAmount) ObtainMaximum()                      {}
func (g *GPUAmount) IncreaseByRatio(_ float64, _ Amount) {}
func (g *GPUAmount) CanAccommodate(req Amount) bool      { return !req.HasResource() }
func (g *GPUAmount) Reserve(_ Amount)                    {}
func (g *GPUAmount) Collect(_ Amount)                    {}
func (g *GPUAmount) HasResource() bool                   { return false }
func (g *GPUAmount) Clone() Amount                       { return &GPUAmount{} }

// AllocateFor always fails: there is nothing to apply a GPU allocation to.
func (g *GPUAmount) AllocateFor(_ Target) error {
	return fmt.Errorf("allocate gpu: %w", ErrUnimplemented)
}
