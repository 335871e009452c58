// Package registry holds the cache of initialized modules for one
// application instance.
//
// The registry guarantees that a module's initialization runs at most once
// per name, no matter how many load sessions or goroutines request it.
// Concurrent callers for the same name wait for the first caller's result.
// A failed initialization is cached like a success and is returned again
// until the module is undefined with Undef. Cancellation is the exception:
// an initialization aborted by its context is forgotten, so the next request
// starts over.
//
// A Registry is created by its owner (the App) and torn down with Close;
// there is no package-level instance.
package registry
