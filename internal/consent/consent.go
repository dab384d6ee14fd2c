// Copyright 2025 Certen Protocol
//
// Consent gate — pure decision function plus the ConsentProvider capability
// the core consumes for human-in-the-loop approval. Grounded on the
// teacher's pkg/attestation/service.go uuid.UUID-keyed map idiom for
// correlating decisions to artifacts.

package consent

import (
	"github.com/google/uuid"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/trust"
)

// Decision is the consent gate's verdict for an artifact.
type Decision string

const (
	DecisionAutoMint            Decision = "AUTO_MINT"
	DecisionRequireConsent      Decision = "REQUIRE_CONSENT"
	DecisionRequireCorroboration Decision = "REQUIRE_CORROBORATION"
	DecisionReject              Decision = "REJECT"
)

// ProviderAnswer is what a human ConsentProvider returns for an ask.
type ProviderAnswer string

const (
	AnswerGranted             ProviderAnswer = "granted"
	AnswerDeclined            ProviderAnswer = "declined"
	AnswerReviewThenGranted   ProviderAnswer = "review_then_granted"
	AnswerReviewThenDeclined  ProviderAnswer = "review_then_declined"
)

// Provider is the abstract human-consent capability the core consumes.
type Provider interface {
	Ask(artifactSummary string, report *trust.Report) (ProviderAnswer, string, error)
}

// TierPolicy describes which tiers are eligible for auto-mint. Per §9's Open
// Question (iii), only SELF_AUTHENTICATING and GOVERNMENT default to true.
type TierPolicy struct {
	AutoMintTiers map[artifact.Tier]bool
}

// DefaultTierPolicy returns the policy named in §4.6/§9.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{
		AutoMintTiers: map[artifact.Tier]bool{
			artifact.TierSelfAuthenticating: true,
			artifact.TierGovernment:         true,
		},
	}
}

func (p TierPolicy) autoMintEligible(tier artifact.Tier) bool {
	return p.AutoMintTiers[tier]
}

// Record is the persisted outcome of a consent-gate decision, keyed by
// artifact id.
type Record struct {
	ID         uuid.UUID
	ArtifactID string
	Decision   Decision
	Answer     ProviderAnswer
	Rationale  string
}

// Evaluate implements the §4.6 decision table. resolverClean reports whether
// the dependency resolver placed the artifact in a valid layer (no cycle, no
// missing required predecessor).
func Evaluate(tier artifact.Tier, policy TierPolicy, report *trust.Report, resolverClean bool) Decision {
	switch {
	case policy.autoMintEligible(tier) && report.Score >= 0.95 && report.HighContradictions == 0:
		return DecisionAutoMint
	case report.Score >= 0.80 && resolverClean:
		return DecisionRequireConsent
	case report.Score >= 0.60 && report.Score < 0.80:
		return DecisionRequireCorroboration
	default:
		return DecisionReject
	}
}

// Gate ties decision evaluation to an optional human Provider.
type Gate struct {
	Policy   TierPolicy
	Provider Provider
}

// NewGate builds a Gate with the default tier policy.
func NewGate(provider Provider) *Gate {
	return &Gate{Policy: DefaultTierPolicy(), Provider: provider}
}

// Resolve evaluates the decision table and, when the decision requires a
// human, consults the Provider. It returns a Record with the id set so
// callers can persist it against the artifact.
func (g *Gate) Resolve(recordID uuid.UUID, a *artifact.Artifact, report *trust.Report, resolverClean bool) (Record, error) {
	decision := Evaluate(a.Tier, g.Policy, report, resolverClean)
	rec := Record{ID: recordID, ArtifactID: a.ID, Decision: decision}

	if decision == DecisionAutoMint || decision == DecisionReject {
		return rec, nil
	}

	if g.Provider == nil {
		rec.Decision = DecisionReject
		rec.Rationale = "no consent provider configured for a decision requiring human input"
		return rec, nil
	}

	summary := a.ID + ": " + a.Statement
	answer, rationale, err := g.Provider.Ask(summary, report)
	if err != nil {
		return rec, err
	}
	rec.Answer = answer
	rec.Rationale = rationale
	if answer == AnswerDeclined || answer == AnswerReviewThenDeclined {
		rec.Decision = DecisionReject
	}
	return rec, nil
}
