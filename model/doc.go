// Package model defines the backend abstraction that satisfies an agent's
// reasoning step and the concrete helpers around it.
//
// Core goals:
//   - One capability: Infer(ctx, Request) (Output, error)
//   - A deterministic MockBackend for tests and offline development
//   - Error classification (transient vs permanent) and bounded retry,
//     applied inside this layer so the scheduler never retries
//   - Keep request/output shapes minimal and transport independent
//
// Providers (e.g. OpenAI, Anthropic) implement the Backend interface from
// this package so higher layers (agents, engine) remain decoupled from
// vendor SDKs. Swapping the backend variant changes timing and content,
// never scheduling or aggregation behavior.
package model
