// Package application wires the configuration pipeline: built-in defaults,
// base file, override files and key=value overrides are merged in precedence
// order, references are substituted, the result is decoded and validated,
// and the resolved snapshot is persisted for the run. It keeps the main
// package focused on CLI parsing and orchestration.
package application
