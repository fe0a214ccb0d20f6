// Package core defines the shared vocabulary of the GPTSwarm engine: the
// task payload submitted by callers, the partial outputs produced by role
// agents, the aggregated result returned to callers, and the error types
// surfaced by orchestration.
//
// Higher layers (graph, engine, aggregate, model adapters) depend on this
// package so they remain decoupled from each other. Nothing in core performs
// I/O or holds mutable run state.
package core
