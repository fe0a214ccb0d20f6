package core

import "encoding/json"

// Task is the caller-supplied work item for one orchestration run. It is
// treated as immutable once submitted and is shared read-only by every agent
// in the run; use Clone before handing a copy to anything that may mutate it.
type Task map[string]any

// Clone returns a shallow copy of the task. Values are shared; the top-level
// map is independent.
func (t Task) Clone() Task {
	if t == nil {
		return nil
	}
	c := make(Task, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// PartialOutput is the structured value produced by one agent for one task.
// Its shape is role-specific: the design role yields a design document
// mapping, track roles yield a "tasks" list plus stack metadata.
type PartialOutput map[string]any

// Tasks returns the output's ordered task items, or nil if the output
// carries none.
func (p PartialOutput) Tasks() []TaskItem {
	if p == nil {
		return nil
	}
	items, _ := p["tasks"].([]TaskItem)
	return items
}

// TaskItem is one unit of implementation work emitted by a track agent.
// Zero-valued optional fields are omitted from serialized forms.
type TaskItem struct {
	Type         string   `json:"type"`
	Name         string   `json:"name,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Method       string   `json:"method,omitempty"`
	Model        string   `json:"model,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// SyncPoint records a contract surface between two concurrently executed
// tracks that share a predecessor: the producing track exposes the surface,
// the consuming track depends on it.
type SyncPoint struct {
	ProducingTrack string   `json:"producing_track"`
	ConsumingTrack string   `json:"consuming_track"`
	Contract       string   `json:"contract_description"`
	Entities       []string `json:"entities,omitempty"`
}

// AggregatedResult is the assembled outcome of a successful run. It is owned
// solely by the caller after return.
type AggregatedResult struct {
	// Design is the design-role node's output, nil if no design role was
	// requested.
	Design PartialOutput

	// Tracks maps each non-design role to its output.
	Tracks map[string]PartialOutput

	// SyncPoints lists derived contract points between sibling tracks,
	// ordered deterministically. Possibly empty, never nil.
	SyncPoints []SyncPoint
}

// Map renders the result in its flat keyed form:
// design, <role>_tasks for each track, and sync_points. Track entries carry
// the role's task list when present, otherwise the whole partial output.
func (r AggregatedResult) Map() map[string]any {
	out := make(map[string]any, len(r.Tracks)+2)
	if r.Design != nil {
		out["design"] = r.Design
	}
	for role, po := range r.Tracks {
		if items := po.Tasks(); items != nil {
			out[role+"_tasks"] = items
		} else {
			out[role+"_tasks"] = po
		}
	}
	out["sync_points"] = r.SyncPoints
	return out
}

// MarshalJSON serializes the flat keyed form. encoding/json emits map keys
// in sorted order, so two equal results are byte-identical when encoded.
func (r AggregatedResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
