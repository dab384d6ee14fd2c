// Copyright 2025 Certen Protocol
//
// Dependency graph edge extraction — direct, inferred, chronological and
// type-specific edges per §4.4. Grounded on the teacher's
// pkg/batch/collector.go transaction-accumulation shape, generalized from
// "accumulate into an anchor batch" to "accumulate into a dependency graph".

package resolver

import (
	"regexp"
	"strings"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// Edge is one dependency: Target must exist before Source can be minted.
type Edge struct {
	Target   string
	Required bool
	Kind     string
}

// inferredPattern matches statement phrases like
// "pursuant to document ID:ART-123" per §4.4.
var inferredPattern = regexp.MustCompile(
	`(?i)(?:refers to|references|based on|pursuant to|in accordance with|as per)\s+(?:document|artifact|evidence)\s+(?:ID:|#)?\s*([A-Za-z0-9_-]+)`,
)

// Edges returns every dependency edge declared or inferable from a.
func Edges(a *artifact.Artifact) []Edge {
	var edges []Edge

	for _, dep := range a.Dependencies {
		edges = append(edges, Edge{Target: dep, Required: true, Kind: "explicit"})
	}
	if a.Metadata.ParentDocumentID != "" {
		edges = append(edges, Edge{Target: a.Metadata.ParentDocumentID, Required: true, Kind: "parent_document"})
	}
	for _, ref := range a.Metadata.ReferencedArtifacts {
		edges = append(edges, Edge{Target: ref, Required: true, Kind: "referenced_artifact"})
	}
	for _, sup := range a.Metadata.SupportingDocuments {
		edges = append(edges, Edge{Target: sup, Required: false, Kind: "supporting_document"})
	}

	for _, m := range inferredPattern.FindAllStringSubmatch(a.Statement, -1) {
		edges = append(edges, Edge{Target: normalizeToken(m[1]), Required: false, Kind: "inferred"})
	}

	for _, follows := range a.Metadata.Chronology.Follows {
		edges = append(edges, Edge{Target: follows, Required: true, Kind: "chronology_follows"})
	}

	switch a.Type {
	case artifact.TypeAmendment:
		if a.Metadata.OriginalDocumentID != "" {
			edges = append(edges, Edge{Target: a.Metadata.OriginalDocumentID, Required: true, Kind: "amendment_original"})
		}
	case artifact.TypeCourtOrder:
		if a.Metadata.MotionID != "" {
			edges = append(edges, Edge{Target: a.Metadata.MotionID, Required: false, Kind: "court_order_motion"})
		}
	case artifact.TypePropertyTransfer:
		if a.Metadata.PropertyDeedID != "" {
			edges = append(edges, Edge{Target: a.Metadata.PropertyDeedID, Required: true, Kind: "property_deed"})
		}
	case artifact.TypeResponse:
		if a.Metadata.InResponseTo != "" {
			edges = append(edges, Edge{Target: a.Metadata.InResponseTo, Required: true, Kind: "in_response_to"})
		}
	}

	return dedupe(edges)
}

// precedesConstraints returns the inverse-layering constraints declared by
// a's metadata.chronology.precedes: for each named id Z, Z requires a.
func precedesConstraints(a *artifact.Artifact) []string {
	return a.Metadata.Chronology.Precedes
}

func dedupe(edges []Edge) []Edge {
	seen := make(map[string]bool, len(edges))
	out := edges[:0]
	for _, e := range edges {
		key := e.Target + "|" + e.Kind
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// normalizeToken trims whitespace and surrounding punctuation often picked
// up by the inferred-edge regex (e.g. a trailing period).
func normalizeToken(tok string) string {
	return strings.TrimRight(strings.TrimSpace(tok), ".,;:")
}
