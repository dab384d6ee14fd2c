// Copyright 2025 Certen Protocol
//
// Artifact weight calculator — a pure function from intake fields to a
// weight in [0,1]. Grounded on the teacher's commitment package's
// referentially-transparent hashing helpers in spirit (no hidden state, no
// I/O, same inputs always produce the same output).

package weight

import (
	"math"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// baseWeight is the exact per-tier table from §4.2.
var baseWeight = map[artifact.Tier]float64{
	artifact.TierSelfAuthenticating:    1.00,
	artifact.TierGovernment:            0.95,
	artifact.TierFinancialInstitution:  0.90,
	artifact.TierIndependentThirdParty: 0.85,
	artifact.TierBusinessRecords:       0.80,
	artifact.TierFirstPartyAdverse:     0.75,
	artifact.TierFirstPartyFriendly:    0.60,
	artifact.TierUncorroboratedPerson:  0.40,
}

const (
	credibilityFactorBonus = 0.05
	credibilityFactorCap   = 0.20
	custodyEntryBonus      = 0.05
	sealBonus              = 0.10
	notaryBonus            = 0.10
	clerkSignatureBonus    = 0.20

	factCredibilityFactorBonus = 0.03
)

// Calculate computes the weight for a non-fact artifact per §4.2: base
// weight by tier, plus additive adjustments, rounded to the nearest
// thousandth and clamped to 1.0.
func Calculate(a *artifact.Artifact) float64 {
	base, ok := baseWeight[a.Tier]
	if !ok {
		base = 0
	}

	adjustment := credibilityBonus(len(a.CredibilityFactors))
	adjustment += custodyEntryBonus * float64(len(a.CustodyChain))
	if a.SealNumber != "" {
		adjustment += sealBonus
	}
	if a.NotaryID != "" {
		adjustment += notaryBonus
	}
	if len(a.ClerkSignature) > 0 {
		adjustment += clerkSignatureBonus
	}

	return clamp01(math.Round((base+adjustment)*1000) / 1000)
}

// CalculateFact computes the weight of a fact extracted from a parent
// artifact: parentWeight * extractionConfidence, plus a small per-factor
// bonus and an optional corroboration bonus, clamped to 1.0.
func CalculateFact(parentWeight, extractionConfidence float64, credibilityFactors int, corroborationBonus float64) float64 {
	w := parentWeight * clamp01(extractionConfidence)
	w += factCredibilityFactorBonus * float64(credibilityFactors)
	w += corroborationBonus
	return clamp01(w)
}

func credibilityBonus(n int) float64 {
	bonus := credibilityFactorBonus * float64(n)
	if bonus > credibilityFactorCap {
		bonus = credibilityFactorCap
	}
	return bonus
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
