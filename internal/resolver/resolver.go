// Copyright 2025 Certen Protocol
//
// Dependency resolver — builds a DAG over pending artifacts plus the chain's
// already-minted set, detects cycles, and emits a layered minting plan.
// Grounded on the teacher's pkg/batch/scheduler.go stop/done-channel
// cancellation idiom, generalized here to per-node cancellation checks
// during graph resolution (§5).

package resolver

import (
	"context"
	"sort"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// UnresolvedEntry describes why a single artifact could not be placed.
type UnresolvedEntry struct {
	ArtifactID string
	Missing    []string
	Candidates map[string][]string // missing id -> typo suggestions
	Reason     string              // "cycle" or "missing_required_dependency"
}

// Report is the resolver's output: either a layered minting plan or a set of
// unresolvable artifacts.
type Report struct {
	Valid        bool
	Layers       [][]string
	Unresolvable []UnresolvedEntry
	Warnings     []string
	Cancelled    bool
}

type node struct {
	a        *artifact.Artifact
	required []string // required edge targets, deduped
	optional []string
}

// Resolve builds the dependency graph for pending (plus mintedIDs as
// already-satisfied antecedents) and computes a layered minting plan.
// Cancellation is observed once per graph node per §5.
func Resolve(ctx context.Context, pending []*artifact.Artifact, mintedIDs map[string]bool) *Report {
	report := &Report{Valid: true}

	byID := make(map[string]*node, len(pending))
	order := make([]string, 0, len(pending))
	for _, a := range pending {
		n := &node{a: a}
		edges := Edges(a)
		for _, e := range edges {
			if e.Required {
				n.required = append(n.required, e.Target)
			} else {
				n.optional = append(n.optional, e.Target)
			}
		}
		byID[a.ID] = n
		order = append(order, a.ID)
	}

	// Apply inverse "precedes" constraints: if X.precedes contains Z, then Z
	// requires X, even though the edge is declared on X's own metadata.
	for _, a := range pending {
		for _, z := range precedesConstraints(a) {
			if target, ok := byID[z]; ok {
				target.required = append(target.required, a.ID)
			}
		}
	}

	sort.Strings(order)

	knownIDs := make([]string, 0, len(order)+len(mintedIDs))
	knownIDs = append(knownIDs, order...)
	for id := range mintedIDs {
		knownIDs = append(knownIDs, id)
	}

	unresolvable := make(map[string]UnresolvedEntry)

	// Missing-required-dependency pass.
	for _, id := range order {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			return report
		default:
		}

		n := byID[id]
		var missing []string
		for _, req := range n.required {
			if mintedIDs[req] || byID[req] != nil {
				continue
			}
			missing = append(missing, req)
		}
		if len(missing) > 0 {
			candidates := make(map[string][]string, len(missing))
			for _, m := range missing {
				candidates[m] = suggestTypos(m, knownIDs)
			}
			unresolvable[id] = UnresolvedEntry{ArtifactID: id, Missing: missing, Candidates: candidates, Reason: "missing_required_dependency"}
		}

		for _, opt := range n.optional {
			if !mintedIDs[opt] && byID[opt] == nil {
				report.Warnings = append(report.Warnings, id+": optional dependency "+opt+" is absent")
			}
		}
	}

	// Cycle detection via coloring DFS over the required-edge subgraph
	// restricted to pending nodes (edges into mintedIDs terminate there).
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(order))
	var cycleNodes []string
	var dfs func(id string, stack []string) bool
	dfs = func(id string, stack []string) bool {
		color[id] = gray
		stack = append(stack, id)
		n := byID[id]
		for _, req := range n.required {
			if mintedIDs[req] {
				continue
			}
			target, ok := byID[req]
			if !ok {
				continue // already recorded as missing above
			}
			_ = target
			switch color[req] {
			case white:
				if dfs(req, stack) {
					return true
				}
			case gray:
				// Found a cycle: record every node on the stack from req's
				// first occurrence onward.
				start := indexOf(stack, req)
				cycleNodes = append(cycleNodes, stack[start:]...)
				return true
			}
		}
		color[id] = black
		return false
	}
	for _, id := range order {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			return report
		default:
		}
		if color[id] == white {
			if dfs(id, nil) {
				break
			}
		}
	}

	if len(cycleNodes) > 0 {
		cycleSet := make(map[string]bool, len(cycleNodes))
		for _, id := range cycleNodes {
			cycleSet[id] = true
		}
		for id := range cycleSet {
			unresolvable[id] = UnresolvedEntry{ArtifactID: id, Reason: "cycle"}
		}
	}

	// Propagate failure to descendants (anything that transitively requires
	// an unresolvable node is itself unresolvable).
	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if _, already := unresolvable[id]; already {
				continue
			}
			for _, req := range byID[id].required {
				if _, bad := unresolvable[req]; bad {
					unresolvable[id] = UnresolvedEntry{ArtifactID: id, Missing: []string{req}, Reason: "missing_required_dependency"}
					changed = true
					break
				}
			}
		}
	}

	if len(unresolvable) > 0 {
		report.Valid = false
		for _, id := range order {
			if e, bad := unresolvable[id]; bad {
				report.Unresolvable = append(report.Unresolvable, e)
			}
		}
		return report
	}

	// Depth computation: longest path from any root over required pending
	// predecessors only (minted predecessors are already "depth -1").
	depth := make(map[string]int, len(order))
	var computeDepth func(id string) int
	computing := make(map[string]bool)
	computeDepth = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		computing[id] = true
		max := -1
		for _, req := range byID[id].required {
			if mintedIDs[req] {
				continue
			}
			if _, ok := byID[req]; !ok {
				continue
			}
			d := computeDepth(req)
			if d > max {
				max = d
			}
		}
		result := max + 1
		depth[id] = result
		delete(computing, id)
		return result
	}

	maxDepth := 0
	for _, id := range order {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			return report
		default:
		}
		d := computeDepth(id)
		if d > maxDepth {
			maxDepth = d
		}
	}

	layers := make([][]string, maxDepth+1)
	for _, id := range order {
		d := depth[id]
		layers[d] = append(layers[d], id)
	}
	for _, layer := range layers {
		sort.Strings(layer)
	}
	report.Layers = layers

	return report
}

func indexOf(s []string, v string) int {
	for i, item := range s {
		if item == v {
			return i
		}
	}
	return 0
}
