// Package scheduler decides which modules of a load graph may start. A module
// is ready once every prerequisite completed. The executor reports each
// outcome back; a failure makes every transitive dependent skipped.
package scheduler
