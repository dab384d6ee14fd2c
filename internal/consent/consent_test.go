// Copyright 2025 Certen Protocol

package consent

import (
	"testing"

	"github.com/google/uuid"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/trust"
)

func TestEvaluateAutoMint(t *testing.T) {
	report := &trust.Report{Score: 0.97}
	got := Evaluate(artifact.TierGovernment, DefaultTierPolicy(), report, true)
	if got != DecisionAutoMint {
		t.Errorf("expected AUTO_MINT, got %s", got)
	}
}

func TestEvaluateFinancialInstitutionNeverAutoMints(t *testing.T) {
	report := &trust.Report{Score: 0.99}
	got := Evaluate(artifact.TierFinancialInstitution, DefaultTierPolicy(), report, true)
	if got != DecisionRequireConsent {
		t.Errorf("expected REQUIRE_CONSENT for FINANCIAL_INSTITUTION, got %s", got)
	}
}

func TestEvaluateHighContradictionBlocksAutoMint(t *testing.T) {
	report := &trust.Report{Score: 0.99, HighContradictions: 1}
	got := Evaluate(artifact.TierSelfAuthenticating, DefaultTierPolicy(), report, true)
	if got != DecisionRequireConsent {
		t.Errorf("expected REQUIRE_CONSENT when HIGH contradictions present, got %s", got)
	}
}

func TestEvaluateCorroborationBand(t *testing.T) {
	report := &trust.Report{Score: 0.65}
	got := Evaluate(artifact.TierBusinessRecords, DefaultTierPolicy(), report, true)
	if got != DecisionRequireCorroboration {
		t.Errorf("expected REQUIRE_CORROBORATION, got %s", got)
	}
}

func TestEvaluateReject(t *testing.T) {
	report := &trust.Report{Score: 0.10}
	got := Evaluate(artifact.TierUncorroboratedPerson, DefaultTierPolicy(), report, true)
	if got != DecisionReject {
		t.Errorf("expected REJECT, got %s", got)
	}
}

type stubProvider struct {
	answer ProviderAnswer
}

func (s stubProvider) Ask(summary string, report *trust.Report) (ProviderAnswer, string, error) {
	return s.answer, "stub rationale", nil
}

func TestGateResolveConsultsProviderWhenRequired(t *testing.T) {
	gate := NewGate(stubProvider{answer: AnswerGranted})
	a := &artifact.Artifact{ID: "ART-1", Tier: artifact.TierBusinessRecords, Statement: "test"}
	report := &trust.Report{Score: 0.85}

	rec, err := gate.Resolve(uuid.New(), a, report, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Decision != DecisionRequireConsent {
		t.Errorf("expected REQUIRE_CONSENT, got %s", rec.Decision)
	}
	if rec.Answer != AnswerGranted {
		t.Errorf("expected granted answer recorded, got %s", rec.Answer)
	}
}

func TestGateResolveDeclinedFlipsToReject(t *testing.T) {
	gate := NewGate(stubProvider{answer: AnswerDeclined})
	a := &artifact.Artifact{ID: "ART-1", Tier: artifact.TierBusinessRecords}
	report := &trust.Report{Score: 0.85}

	rec, _ := gate.Resolve(uuid.New(), a, report, true)
	if rec.Decision != DecisionReject {
		t.Errorf("expected REJECT after decline, got %s", rec.Decision)
	}
}

func TestGateResolveNoProviderRejects(t *testing.T) {
	gate := NewGate(nil)
	a := &artifact.Artifact{ID: "ART-1", Tier: artifact.TierBusinessRecords}
	report := &trust.Report{Score: 0.85}

	rec, err := gate.Resolve(uuid.New(), a, report, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Decision != DecisionReject {
		t.Errorf("expected REJECT with no provider, got %s", rec.Decision)
	}
}
