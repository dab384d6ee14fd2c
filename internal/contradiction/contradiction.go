// Copyright 2025 Certen Protocol
//
// Contradiction index — pairwise conflict detection between artifacts
// sharing a case_id, and resolution by tier precedence. Grounded on the
// teacher's commitment.HashCanonical determinism discipline (no hidden
// state; same pair always yields the same verdict).

package contradiction

import (
	"math"
	"strings"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// Severity grades how far apart the conflicting artifacts' tiers are.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// antonymPairs is the small, explicit antonym table from §4.5. Kept narrow
// and explicit per the spec's Open Question (ii): no broader NLP guessing.
var antonymPairs = [][2]string{
	{"owns", "does not own"},
	{"true", "false"},
	{"valid", "invalid"},
	{"authentic", "forged"},
}

// DefaultMaterialKeys is the caller-declared "material" metadata key set
// used when the caller supplies none.
var DefaultMaterialKeys = []string{"amount", "date", "owner", "parcel_id"}

// Record describes one contradiction between two artifacts.
type Record struct {
	ArtifactA  string
	ArtifactB  string
	Severity   Severity
	Reason     string
	Winner     string // id of the artifact the resolver favors
}

// tierWeight is the base weight ordering used purely for severity/precedence
// comparisons here — it intentionally mirrors weight.Calculate's table
// without recomputing per-artifact adjustments, since §4.5 only cares about
// tier distance, not the fully adjusted weight.
var tierWeight = map[artifact.Tier]float64{
	artifact.TierSelfAuthenticating:    1.00,
	artifact.TierGovernment:            0.95,
	artifact.TierFinancialInstitution:  0.90,
	artifact.TierIndependentThirdParty: 0.85,
	artifact.TierBusinessRecords:       0.80,
	artifact.TierFirstPartyAdverse:     0.75,
	artifact.TierFirstPartyFriendly:    0.60,
	artifact.TierUncorroboratedPerson:  0.40,
}

// Conflicts reports whether a and b contradict, per §4.5: same case_id, and
// either an antonym-pair statement match or a diverging value for a material
// metadata key.
func Conflicts(a, b *artifact.Artifact, materialKeys []string) (bool, string) {
	if a.CaseID == "" || a.CaseID != b.CaseID {
		return false, ""
	}

	if reason, ok := antonymConflict(a.Statement, b.Statement); ok {
		return true, reason
	}

	if len(materialKeys) == 0 {
		materialKeys = DefaultMaterialKeys
	}
	for _, key := range materialKeys {
		av, aok := a.Metadata.Get(key)
		bv, bok := b.Metadata.Get(key)
		if aok && bok && av != bv {
			return true, "diverging metadata key " + key
		}
	}

	return false, ""
}

func antonymConflict(stmtA, stmtB string) (string, bool) {
	lowerA, lowerB := strings.ToLower(stmtA), strings.ToLower(stmtB)
	for _, pair := range antonymPairs {
		aHasFirst := strings.Contains(lowerA, pair[0])
		aHasSecond := strings.Contains(lowerA, pair[1])
		bHasFirst := strings.Contains(lowerB, pair[0])
		bHasSecond := strings.Contains(lowerB, pair[1])

		if (aHasFirst && bHasSecond) || (aHasSecond && bHasFirst) {
			return "antonym pair \"" + pair[0] + "\"/\"" + pair[1] + "\"", true
		}
	}
	return "", false
}

// Resolve builds a Record for a contradicting pair, picking the authoritative
// artifact and assigning severity per §4.5's precedence rules:
// SELF_AUTHENTICATING always wins; otherwise higher tier weight wins; ties
// broken by earlier submitted_at.
func Resolve(a, b *artifact.Artifact, reason string) Record {
	wa, wb := tierWeight[a.Tier], tierWeight[b.Tier]

	winner := a.ID
	switch {
	case a.Tier == artifact.TierSelfAuthenticating && b.Tier != artifact.TierSelfAuthenticating:
		winner = a.ID
	case b.Tier == artifact.TierSelfAuthenticating && a.Tier != artifact.TierSelfAuthenticating:
		winner = b.ID
	case wa > wb:
		winner = a.ID
	case wb > wa:
		winner = b.ID
	default:
		winner = earlierSubmitted(a, b)
	}

	return Record{
		ArtifactA: a.ID,
		ArtifactB: b.ID,
		Severity:  severity(wa, wb),
		Reason:    reason,
		Winner:    winner,
	}
}

func earlierSubmitted(a, b *artifact.Artifact) string {
	if a.SubmittedAt.Before(b.SubmittedAt) {
		return a.ID
	}
	if b.SubmittedAt.Before(a.SubmittedAt) {
		return b.ID
	}
	return a.ID
}

func severity(wa, wb float64) Severity {
	// Compare in whole thousandths so that a gap such as 0.90-0.60 counts as
	// exactly 0.30 rather than 0.30000000000000004.
	diff := math.Abs(math.Round((wa - wb) * 1000))
	switch {
	case diff > 300:
		return SeverityHigh
	case diff > 150:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FindAll scans a candidate set for every pairwise contradiction against a
// target artifact (used by the trust analyzer over artifact_index).
func FindAll(target *artifact.Artifact, candidates []*artifact.Artifact, materialKeys []string) []Record {
	var records []Record
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		if ok, reason := Conflicts(target, c, materialKeys); ok {
			records = append(records, Resolve(target, c, reason))
		}
	}
	return records
}
