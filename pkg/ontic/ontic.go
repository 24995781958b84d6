// Package ontic holds module-level metadata.
package ontic

// Version is the module version, stamped into CLI output.
const Version = "v0.1.0"
