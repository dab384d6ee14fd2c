// Copyright 2025 Certen Protocol
//
// Ledger orchestrator — wires resolver, trust, consent, and chainledger
// together behind the single-writer ingest interface named in spec §6.
// Grounded on the teacher's pkg/attestation/service.go Service shape
// (mu sync.RWMutex, Config/DefaultConfig pair, uuid.UUID-keyed maps for
// correlating decisions, log.New(..., "[Component] ", log.LstdFlags)).

package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/chainledger"
	"github.com/certen/evidence-ledger/internal/config"
	"github.com/certen/evidence-ledger/internal/consent"
	"github.com/certen/evidence-ledger/internal/custody"
	"github.com/certen/evidence-ledger/internal/metrics"
	"github.com/certen/evidence-ledger/internal/query"
	"github.com/certen/evidence-ledger/internal/resolver"
	"github.com/certen/evidence-ledger/internal/snapshotstore"
	"github.com/certen/evidence-ledger/internal/trust"
	"github.com/certen/evidence-ledger/internal/weight"
)

// Ledger is the top-level orchestrator: the single entry point callers use
// to submit evidence, mint pending artifacts, validate the chain, and query
// or prove minted facts.
type Ledger struct {
	mu sync.Mutex

	chain    *chainledger.Chain
	gate     *consent.Gate
	policy   *config.Config
	metrics  *metrics.Collectors
	verifier custody.Verifier

	archive   *snapshotstore.Store
	chainID   string
	exportSeq int64

	consentRecords map[uuid.UUID]consent.Record

	logger *log.Logger
}

// Config bundles an existing chain with the policy and human-consent
// provider the orchestrator needs to drive submissions to completion.
type Config struct {
	Chain           *chainledger.Chain
	Policy          *config.Config
	ConsentProvider consent.Provider
	CustodyVerifier custody.Verifier
	Metrics         *metrics.Collectors
	Logger          *log.Logger

	// Archive, if set, receives every ExportChain snapshot under ChainID
	// (archival failures are logged, not fatal — a caller's export still
	// succeeds) and backs RestoreFromArchive.
	Archive *snapshotstore.Store
	ChainID string
}

// New builds a Ledger from an existing chain and policy.
func New(cfg Config) (*Ledger, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("ledger: chain must not be nil")
	}
	if cfg.Policy == nil {
		cfg.Policy = config.DefaultConfig()
	}
	if cfg.CustodyVerifier == nil {
		cfg.CustodyVerifier = custody.NoopVerifier{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Ledger] ", log.LstdFlags)
	}
	if cfg.Archive != nil && cfg.ChainID == "" {
		cfg.ChainID = "default"
	}

	gatePolicy := consent.TierPolicy{AutoMintTiers: cfg.Policy.AutoMintTierSet()}
	gate := &consent.Gate{Policy: gatePolicy, Provider: cfg.ConsentProvider}

	return &Ledger{
		chain:          cfg.Chain,
		gate:           gate,
		policy:         cfg.Policy,
		metrics:        cfg.Metrics,
		verifier:       cfg.CustodyVerifier,
		archive:        cfg.Archive,
		chainID:        cfg.ChainID,
		consentRecords: make(map[uuid.UUID]consent.Record),
		logger:         cfg.Logger,
	}, nil
}

// Submit accepts a new artifact into the pending bag after computing its
// weight. It does not resolve dependencies or attempt minting; call
// MintPending to advance the pipeline. Submitting an id already pending or
// already minted fails with chainledger.ErrDuplicateArtifactID and leaves
// all ledger state, including a's weight, untouched.
func (l *Ledger) Submit(a *artifact.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var w float64
	if a.Type == artifact.TypeFact {
		w = weight.CalculateFact(a.ParentWeight, a.ExtractionConfidence, len(a.CredibilityFactors), a.CorroborationBonus)
	} else {
		w = weight.Calculate(a)
	}
	prevWeight := a.Weight
	a.Weight = w

	if err := l.chain.Submit(a); err != nil {
		a.Weight = prevWeight
		return err
	}
	l.metrics.ArtifactsSubmitted.WithLabelValues(string(a.Tier), string(a.Type)).Inc()
	l.logger.Printf("submitted %s (tier=%s weight=%.3f)", a.ID, a.Tier, a.Weight)
	return nil
}

// MintResult reports the outcome of one MintPending pass.
type MintResult struct {
	Resolution *resolver.Report
	Minted     []*chainledger.Block
	Decisions  []consent.Record
	Rejected   []string // artifact ids the consent gate rejected
}

// MintPending runs the full pipeline over everything currently pending:
// resolve dependencies into layers, evaluate trust and consent per artifact
// in layer order, and mint a block per layer containing only the artifacts
// the consent gate cleared. Artifacts rejected by the gate remain out of the
// chain; callers may resubmit a corrected version.
func (l *Ledger) MintPending(ctx context.Context) (*MintResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.chain.Pending()
	if len(pending) == 0 {
		return &MintResult{Resolution: &resolver.Report{Valid: true}}, nil
	}

	report := resolver.Resolve(ctx, pending, l.chain.MintedIDs())
	result := &MintResult{Resolution: report}
	if report.Cancelled {
		return result, ctx.Err()
	}
	if !report.Valid {
		for _, u := range report.Unresolvable {
			l.metrics.ResolutionFailures.WithLabelValues(u.Reason).Inc()
		}
		return result, nil
	}

	byID := make(map[string]*artifact.Artifact, len(pending))
	for _, a := range pending {
		byID[a.ID] = a
	}

	analyzer := trust.NewAnalyzer(&trust.Config{CustodyVerifier: l.verifier, MaterialKeys: l.policy.MaterialMetadataKeys})
	minted := l.chain.MintedArtifacts()

	for _, layer := range report.Layers {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var cleared []string
		for _, id := range layer {
			a := byID[id]
			candidates := append(otherArtifacts(pending, id), minted...)
			trustReport := analyzer.Analyze(a, candidates, nil)

			for _, c := range trustReport.Contradictions {
				l.metrics.ContradictionsFound.WithLabelValues(string(c.Severity)).Inc()
			}

			rec, err := l.gate.Resolve(uuid.New(), a, trustReport, true)
			if err != nil {
				return result, fmt.Errorf("consent gate for %s: %w", a.ID, err)
			}
			l.consentRecords[rec.ID] = rec
			result.Decisions = append(result.Decisions, rec)
			l.metrics.ConsentDecisions.WithLabelValues(string(rec.Decision)).Inc()

			if rec.Decision == consent.DecisionReject {
				result.Rejected = append(result.Rejected, a.ID)
				continue
			}
			cleared = append(cleared, id)
		}

		if len(cleared) == 0 {
			continue
		}
		start := time.Now()
		block, err := l.chain.MintLayer(ctx, cleared)
		l.metrics.MiningDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return result, fmt.Errorf("mint layer: %w", err)
		}
		l.metrics.BlocksMined.Inc()
		result.Minted = append(result.Minted, block)
	}

	return result, nil
}

// ValidateChain runs full-chain validation.
func (l *Ledger) ValidateChain() *chainledger.ValidationResult {
	return l.chain.Validate()
}

// Query performs a filtered scan over minted artifacts.
func (l *Ledger) Query(f query.Filter) []*artifact.Artifact {
	return query.Query(l.chain, f)
}

// Get performs a point lookup for a minted artifact.
func (l *Ledger) Get(id string) (*artifact.Artifact, bool) {
	return query.Get(l.chain, id)
}

// GetByContentHash performs a point lookup for a minted artifact by its
// hex-encoded content hash.
func (l *Ledger) GetByContentHash(hash string) (*artifact.Artifact, bool) {
	return query.GetByContentHash(l.chain, hash)
}

// Prove builds a Merkle inclusion proof for a minted artifact.
func (l *Ledger) Prove(id string) (*query.Proof, error) {
	return query.Prove(l.chain, id)
}

// ExportChain renders the chain to its wire-stable snapshot JSON. If an
// Archive was configured, the snapshot is also archived under ChainID at the
// next sequence number; an archival failure is logged but does not fail the
// export — the archive is a durability aid, not the system of record.
func (l *Ledger) ExportChain() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.chain.ExportJSON()
	if err != nil {
		return nil, err
	}
	if l.archive != nil {
		l.exportSeq++
		if err := l.archive.Put(context.Background(), l.chainID, l.exportSeq, l.chain.Export(), data); err != nil {
			l.logger.Printf("archive snapshot %s/%d failed: %v", l.chainID, l.exportSeq, err)
		}
	}
	return data, nil
}

// RestoreFromArchive replaces this ledger's chain with the latest snapshot
// archived under ChainID, verifying it the same way ImportChain does.
// Returns an error if no Archive was configured or no snapshot is archived.
func (l *Ledger) RestoreFromArchive(ctx context.Context) error {
	if l.archive == nil {
		return fmt.Errorf("ledger: no archive configured")
	}

	data, seq, err := l.archive.Latest(ctx, l.chainID)
	if err != nil {
		return fmt.Errorf("ledger: restore from archive: %w", err)
	}
	if err := l.ImportChain(data); err != nil {
		return fmt.Errorf("ledger: restore from archive: %w", err)
	}

	l.mu.Lock()
	l.exportSeq = seq
	l.mu.Unlock()
	return nil
}

// ImportChain replaces this ledger's chain state with one reconstructed from
// a snapshot, after verifying every chain invariant against it (see
// chainledger.ImportSnapshot): a snapshot that fails validation is rejected
// and the ledger's existing chain is left untouched. On success, pending
// artifacts and in-flight consent records are discarded.
func (l *Ledger) ImportChain(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	imported, err := chainledger.ImportSnapshotJSON(data)
	if err != nil {
		return fmt.Errorf("ledger: import chain: %w", err)
	}
	l.chain = imported
	l.consentRecords = make(map[uuid.UUID]consent.Record)
	return nil
}

// ConsentRecord looks up a previously recorded consent decision.
func (l *Ledger) ConsentRecord(id uuid.UUID) (consent.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.consentRecords[id]
	return rec, ok
}

func otherArtifacts(all []*artifact.Artifact, excludeID string) []*artifact.Artifact {
	out := make([]*artifact.Artifact, 0, len(all))
	for _, a := range all {
		if a.ID != excludeID {
			out = append(out, a)
		}
	}
	return out
}
