// Copyright 2025 Certen Protocol

package weight

import (
	"testing"

	"github.com/certen/evidence-ledger/internal/artifact"
)

func TestCalculateBaseTiers(t *testing.T) {
	cases := []struct {
		tier artifact.Tier
		want float64
	}{
		{artifact.TierSelfAuthenticating, 1.00},
		{artifact.TierGovernment, 0.95},
		{artifact.TierFinancialInstitution, 0.90},
		{artifact.TierIndependentThirdParty, 0.85},
		{artifact.TierBusinessRecords, 0.80},
		{artifact.TierFirstPartyAdverse, 0.75},
		{artifact.TierFirstPartyFriendly, 0.60},
		{artifact.TierUncorroboratedPerson, 0.40},
	}
	for _, c := range cases {
		a := &artifact.Artifact{Tier: c.tier}
		if got := Calculate(a); got != c.want {
			t.Errorf("Calculate(%s) = %v, want %v", c.tier, got, c.want)
		}
	}
}

func TestCalculateGovernmentWithSealClampsToOne(t *testing.T) {
	a := &artifact.Artifact{
		Tier:       artifact.TierGovernment,
		SealNumber: "SEAL-1",
	}
	// 0.95 + 0.10 = 1.05 -> clamped to 1.0, matching scenario 2 of §8.
	if got := Calculate(a); got != 1.0 {
		t.Errorf("Calculate() = %v, want 1.0", got)
	}
}

func TestCredibilityFactorCap(t *testing.T) {
	a := &artifact.Artifact{
		Tier:               artifact.TierUncorroboratedPerson,
		CredibilityFactors: []string{"f1", "f2", "f3", "f4", "f5", "f6"},
	}
	// 6 factors * 0.05 = 0.30, capped at 0.20 -> 0.40 + 0.20 = 0.60
	if got := Calculate(a); got != 0.60 {
		t.Errorf("Calculate() = %v, want 0.60", got)
	}
}

func TestCustodyChainDepthBoundaries(t *testing.T) {
	zero := &artifact.Artifact{Tier: artifact.TierBusinessRecords}
	if got := Calculate(zero); got != 0.80 {
		t.Errorf("zero custody depth: got %v, want 0.80", got)
	}

	entries := make([]artifact.CustodyEntry, 100)
	deep := &artifact.Artifact{Tier: artifact.TierBusinessRecords, CustodyChain: entries}
	// 0.80 + 100*0.05 = 5.80 -> clamped to 1.0
	if got := Calculate(deep); got != 1.0 {
		t.Errorf("100-deep custody: got %v, want 1.0", got)
	}
}

func TestNotaryAndClerkBonuses(t *testing.T) {
	a := &artifact.Artifact{
		Tier:           artifact.TierFirstPartyFriendly,
		NotaryID:       "N-1",
		ClerkSignature: []byte{0x01},
	}
	// 0.60 + 0.10 + 0.20 = 0.90
	if got := Calculate(a); got != 0.90 {
		t.Errorf("Calculate() = %v, want 0.90", got)
	}
}

func TestCalculateFactClamping(t *testing.T) {
	got := CalculateFact(1.0, 1.0, 10, 0.5)
	if got != 1.0 {
		t.Errorf("CalculateFact() = %v, want clamped 1.0", got)
	}

	got = CalculateFact(0.5, 0.5, 0, 0)
	if got != 0.25 {
		t.Errorf("CalculateFact() = %v, want 0.25", got)
	}
}

func TestCalculateReferentiallyTransparent(t *testing.T) {
	a := &artifact.Artifact{
		Tier:               artifact.TierIndependentThirdParty,
		CredibilityFactors: []string{"a", "b"},
		CustodyChain:       []artifact.CustodyEntry{{}, {}},
		NotaryID:           "N-2",
	}
	want := Calculate(a)
	for i := 0; i < 1000; i++ {
		if got := Calculate(a); got != want {
			t.Fatalf("iteration %d: got %v, want %v", i, got, want)
		}
	}
}
