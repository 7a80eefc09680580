// Package config defines the format-agnostic pipeline model and the loader
// interface that format-specific packages (such as internal/hcl) implement.
package config
