// Package hcl provides the concrete HCL implementation of the configuration
// loading interface defined in the `config` package. It is responsible for
// finding and parsing pipeline files, translating `stage` blocks into the
// format-agnostic model, and building the evaluation context that stage
// arguments are later decoded against.
package hcl
