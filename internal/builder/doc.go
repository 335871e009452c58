// Package builder turns a configuration model into a load graph and prepares
// individual modules for execution.
//
// Graph building starts from the entry points and walks the shim map to the
// transitive closure of everything they need. Each reachable module gets its
// location resolved through the path aliases and is added to the topology
// together with one edge per declared prerequisite. Cycle detection runs last,
// so a circular mapping fails before anything is fetched.
//
// Task building pairs a ready module with its fetched source and the exports
// of its prerequisites.
package builder
