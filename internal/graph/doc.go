// Package graph provides a unified facade over the load graph, combining the
// static topology (modules and prerequisite edges) with the per-session load
// state (status, exports, errors).
//
// The facade is thin:
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (scheduler and executor query and  │
//	│   update modules through it)        │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │   Module   │
//	  │   Store    │  │   State    │
//	  └────────────┘  └────────────┘
//
// The builder populates the topology store directly. Once built, the graph
// answers structural questions (DetectCycles, Order) and records the outcome
// of each module's load. Status transitions are one-way: a module that
// reached a terminal status cannot be marked again.
package graph
