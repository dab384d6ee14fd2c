// Copyright 2025 Certen Protocol
//
// Trust analyzer — consumes an artifact plus the current chain view and
// produces a TrustReport. Grounded on the teacher's
// pkg/verification/unified_verifier.go VerificationResult/AddError/AddWarning
// idiom and pkg/attestation/service.go's Config/DefaultConfig shape.

package trust

import (
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/contradiction"
	"github.com/certen/evidence-ledger/internal/custody"
	"github.com/certen/evidence-ledger/internal/hashutil"
)

// Recommendation buckets the trust score into a minting recommendation.
type Recommendation string

const (
	RecommendAutoMint           Recommendation = "auto_mint"
	RecommendManualConsent      Recommendation = "manual_consent"
	RecommendNeedsCorroboration Recommendation = "needs_corroboration"
	RecommendReject             Recommendation = "reject"
)

const ageLimit = 365 * 24 * time.Hour

// Report is the outcome of analyzing a single artifact.
type Report struct {
	ArtifactID     string
	Score          float64
	Recommendation Recommendation
	Contradictions []contradiction.Record
	HighContradictions int
	Warnings       []string
	Errors         []string
}

func (r *Report) addWarning(component, message string) {
	r.Warnings = append(r.Warnings, "["+component+"] "+message)
}

func (r *Report) addError(component, message string) {
	r.Errors = append(r.Errors, "["+component+"] "+message)
}

// Config parametrizes an Analyzer.
type Config struct {
	// CustodyVerifier checks custody-entry signatures; nil uses a no-op
	// verifier (unverified but not invalid, per §9).
	CustodyVerifier custody.Verifier
	// MaterialKeys overrides the contradiction index's default material
	// metadata key set.
	MaterialKeys []string
	// Now lets tests fix "the present" for the age-penalty check.
	Now func() time.Time
}

// DefaultConfig returns a Config with a no-op custody verifier and the
// system clock.
func DefaultConfig() *Config {
	return &Config{
		CustodyVerifier: custody.NoopVerifier{},
		Now:             time.Now,
	}
}

// Analyzer runs the deterministic trust pipeline of §4.3.
type Analyzer struct {
	cfg *Config
}

// NewAnalyzer builds an Analyzer; a nil Config uses DefaultConfig.
func NewAnalyzer(cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CustodyVerifier == nil {
		cfg.CustodyVerifier = custody.NoopVerifier{}
	}
	return &Analyzer{cfg: cfg}
}

// Analyze runs every §4.3 step against a and the candidate set sharing its
// case (typically the chain's artifact index plus pending artifacts), and an
// optional raw-content buffer for content-hash re-verification.
func (an *Analyzer) Analyze(a *artifact.Artifact, candidates []*artifact.Artifact, rawContent []byte) *Report {
	report := &Report{ArtifactID: a.ID, Score: 1.0}

	if rawContent != nil {
		recomputed := hashutil.ContentHash(rawContent)
		if recomputed != a.ContentHash {
			report.Score *= 0.5
			report.addError("content_hash", "recomputed hash does not match stored content_hash")
		}
	}

	custodyResult := custody.Validate(a.CustodyChain, an.cfg.CustodyVerifier)
	if !custodyResult.Monotonic {
		report.Score *= 0.8
		report.addError("custody", "custody chain timestamps are not strictly increasing")
	}
	if !custodyResult.SignatureValid {
		report.Score *= 0.8
		report.addWarning("custody", "one or more custody signatures failed verification")
	}

	records := contradiction.FindAll(a, candidates, an.cfg.MaterialKeys)
	report.Contradictions = records
	highFromHigherTier := false
	for _, rec := range records {
		if rec.Winner != a.ID && rec.Severity == contradiction.SeverityHigh {
			highFromHigherTier = true
			report.HighContradictions++
		}
		report.addWarning("contradiction", "conflicts with "+otherID(rec, a.ID))
	}
	if highFromHigherTier {
		report.Score *= 0.7
	}

	switch a.AuthenticationMethod {
	case artifact.AuthDigitalSeal:
		report.Score *= 1.10
	case artifact.AuthNotarized:
		report.Score *= 1.05
	}

	if an.cfg.Now().Sub(a.SubmittedAt) > ageLimit {
		report.Score *= 0.95
		report.addWarning("age", "artifact is older than 365 days")
	}

	report.Score = clamp01(report.Score)
	report.Recommendation = bucket(report.Score)
	return report
}

func otherID(rec contradiction.Record, selfID string) string {
	if rec.ArtifactA == selfID {
		return rec.ArtifactB
	}
	return rec.ArtifactA
}

func bucket(score float64) Recommendation {
	switch {
	case score >= 0.95:
		return RecommendAutoMint
	case score >= 0.80:
		return RecommendManualConsent
	case score >= 0.60:
		return RecommendNeedsCorroboration
	default:
		return RecommendReject
	}
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
