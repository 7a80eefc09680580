// Package resource tracks execution capacity per processing-unit kind.
//
// An Amount is the ledger for a single kind (CPU threads, GPU). A Pool bundles
// one Amount per kind and is what the scheduler reserves from its global
// capacity before a stage may run, and collects back when the stage finishes.
//
// Reservations are all-or-nothing: Pool.Reserve checks every kind before it
// subtracts anything.
package resource
