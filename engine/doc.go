// Package engine executes a built TaskGraph: it launches every ready node
// concurrently, collects completions, promotes dependents whose
// predecessors are all done, and settles the run as either a full output
// set or a failure naming exactly the roles that failed.
//
// The scheduling loop is the single writer of node state. Goroutines
// spawned for nodes communicate back over one completion channel, so no
// node state is ever mutated concurrently.
package engine
