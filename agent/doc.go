// Package agent implements the closed set of worker roles the engine can
// schedule: a system-design role and one role per delivery track. Role
// behavior is selected once at graph-build time via ForRole, never
// re-dispatched per call.
//
// Each agent composes a model request from the task and its predecessors'
// outputs, delegates reasoning to its bound backend, and maps the raw
// backend output into the partial-output shape the aggregator expects for
// that role. Agents hold no per-run state and share their backend, so one
// instance is safe for reuse across runs.
package agent
