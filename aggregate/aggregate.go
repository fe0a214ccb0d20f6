// Package aggregate assembles the heterogeneous per-role outputs of a run
// into one consistent result and derives the synchronization points between
// concurrently executed tracks.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/logging"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives aggregation diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Aggregator merges completed node outputs into an AggregatedResult. It is
// deterministic and order-independent: the result depends only on the
// output values and the graph shape, never on completion order.
type Aggregator struct {
	logger logging.Logger
}

// New constructs an Aggregator with optional overrides.
func New(optFns ...func(o *Options)) *Aggregator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Aggregator{logger: opts.Logger}
}

// Aggregate assembles the final result from the outputs of a fully
// completed run. Sync-point derivation is best effort and never fails: an
// empty overlap between two sibling tracks simply emits no point.
func (a *Aggregator) Aggregate(task core.Task, outputs map[string]core.PartialOutput, g *graph.TaskGraph) core.AggregatedResult {
	res := core.AggregatedResult{
		Tracks:     make(map[string]core.PartialOutput),
		SyncPoints: []core.SyncPoint{},
	}

	designRole := g.DesignRole()
	roles := make([]string, 0, len(outputs))
	for role := range outputs {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		if role == designRole {
			res.Design = outputs[role]
			continue
		}
		res.Tracks[role] = outputs[role]
	}

	for _, pair := range g.SiblingPairs() {
		sp, ok := a.syncPoint(pair[0], pair[1], outputs)
		if !ok {
			continue
		}
		res.SyncPoints = append(res.SyncPoints, sp)
	}
	return res
}

// syncPoint derives the shared contract surface between two sibling tracks
// from the entity, model and endpoint names both declare.
func (a *Aggregator) syncPoint(left, right string, outputs map[string]core.PartialOutput) (core.SyncPoint, bool) {
	leftItems := outputs[left].Tasks()
	rightItems := outputs[right].Tasks()
	if len(leftItems) == 0 || len(rightItems) == 0 {
		return core.SyncPoint{}, false
	}

	shared := intersect(surfaces(leftItems), surfaces(rightItems))
	if len(shared) == 0 {
		a.logger.Debug("no shared contract surface", "left", left, "right", right)
		return core.SyncPoint{}, false
	}

	producing, consuming := orient(left, right, leftItems, rightItems)
	return core.SyncPoint{
		ProducingTrack: producing,
		ConsumingTrack: consuming,
		Contract: fmt.Sprintf("%s and %s must agree on: %s",
			producing, consuming, strings.Join(shared, ", ")),
		Entities: shared,
	}, true
}

// surfaces collects the contract-bearing identifiers a track declares.
func surfaces(items []core.TaskItem) map[string]bool {
	out := make(map[string]bool)
	for _, it := range items {
		for _, s := range []string{it.Name, it.Model, it.Endpoint} {
			if s != "" {
				out[s] = true
			}
		}
	}
	return out
}

func intersect(a, b map[string]bool) []string {
	var shared []string
	for s := range a {
		if b[s] {
			shared = append(shared, s)
		}
	}
	sort.Strings(shared)
	return shared
}

// orient decides which sibling produces the contract: the track exposing
// more endpoints (its controllers serve what the other consumes), falling
// back to lexicographic order when neither dominates.
func orient(left, right string, leftItems, rightItems []core.TaskItem) (string, string) {
	lc, rc := exposed(leftItems), exposed(rightItems)
	switch {
	case lc > rc:
		return left, right
	case rc > lc:
		return right, left
	default:
		if left < right {
			return left, right
		}
		return right, left
	}
}

func exposed(items []core.TaskItem) int {
	n := 0
	for _, it := range items {
		if it.Type == "controller" && it.Endpoint != "" {
			n++
		}
	}
	return n
}
