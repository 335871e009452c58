// Package engine defines how module scripts are evaluated. An Engine runs a
// fetched script and returns the module's exports. Engines are registered by
// file extension; the order of registration is the order in which a module
// location is probed for a script.
package engine
