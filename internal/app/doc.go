// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the load lifecycle, decoupled from any
// specific entrypoint like a CLI or server.
//
// An App owns the process-wide module registry. Every Require call builds a
// fresh load graph but shares the registry, so a module initialized by one
// call is reused by the next.
package app
