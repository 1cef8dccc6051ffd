// Package commands defines the lorentztie CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - tie          Reconstruct phase and induction from a through-focal series
//   - sitie        Single-image reconstruction of a purely magnetic sample
//   - init-config  Write a default configuration file
//
// # Implementation
//
// The root command loads the YAML configuration before any subcommand runs,
// so handlers share one resolved configuration; flags override individual
// fields per invocation.
package commands
