package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tuandaodev/gptswarm/core"
)

// MockModelName is the sentinel model identifier that selects the
// deterministic mock backend instead of a live provider.
const MockModelName = "mock"

// Request captures one reasoning step: the task under execution, the calling
// agent's role, and the outputs of the role's graph predecessors.
type Request struct {
	Role     string                        `json:"role"`
	Task     core.Task                     `json:"task"`
	Upstream map[string]core.PartialOutput `json:"upstream,omitempty"`
}

// Output is the raw result of a backend call. Live providers fill Text with
// the model completion (and Structured when the completion parses as JSON);
// the mock backend fills Structured directly.
type Output struct {
	Text       string         `json:"text,omitempty"`
	Structured map[string]any `json:"structured,omitempty"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Backend is the minimal interface required by agents to drive reasoning.
// Implementations must tolerate concurrent Infer calls; the same instance is
// shared by every agent in a run.
type Backend interface {
	Infer(ctx context.Context, req Request) (Output, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// RenderPrompt flattens a request into the text prompt sent to live
// providers: the role instruction followed by the task and each upstream
// output as JSON. Upstream roles are rendered in sorted order so the prompt
// is deterministic.
func RenderPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent in a development swarm.\n\n", req.Role)
	b.WriteString("Task:\n")
	writeJSON(&b, req.Task)
	for _, role := range sortedKeys(req.Upstream) {
		fmt.Fprintf(&b, "\nOutput of %s:\n", role)
		writeJSON(&b, req.Upstream[role])
	}
	return b.String()
}

func writeJSON(b *strings.Builder, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "%v\n", v)
		return
	}
	b.Write(data)
	b.WriteByte('\n')
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
