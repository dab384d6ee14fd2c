// Copyright 2025 Certen Protocol

package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/chainledger"
	"github.com/certen/evidence-ledger/internal/config"
	"github.com/certen/evidence-ledger/internal/consent"
	"github.com/certen/evidence-ledger/internal/query"
	"github.com/certen/evidence-ledger/internal/trust"
)

// grantingProvider answers every consent ask with an unconditional grant, so
// tests can exercise REQUIRE_CONSENT/REQUIRE_CORROBORATION paths without
// asserting on the human-review UI.
type grantingProvider struct{}

func (grantingProvider) Ask(summary string, report *trust.Report) (consent.ProviderAnswer, string, error) {
	return consent.AnswerGranted, "test auto-grant", nil
}

func newTestLedger(t *testing.T, provider consent.Provider) *Ledger {
	t.Helper()
	chainCfg := chainledger.DefaultConfig()
	chainCfg.Difficulty = 1 // keep mining fast under test
	chain, err := chainledger.New(chainCfg)
	if err != nil {
		t.Fatalf("chainledger.New: %v", err)
	}

	l, err := New(Config{
		Chain:           chain,
		Policy:          config.DefaultConfig(),
		ConsentProvider: provider,
	})
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return l
}

func doc(id, caseID string, tier artifact.Tier, statement string) *artifact.Artifact {
	return &artifact.Artifact{
		ID:                   id,
		CaseID:               caseID,
		Statement:            statement,
		Type:                 artifact.TypeDocument,
		Tier:                 tier,
		AuthenticationMethod: artifact.AuthNone,
		SubmittedAt:          time.Now().UTC(),
	}
}

// Scenario 1: a freshly constructed ledger has only the genesis block and
// validates cleanly.
func TestLedgerGenesisOnly(t *testing.T) {
	l := newTestLedger(t, nil)

	result := l.ValidateChain()
	if !result.Valid {
		t.Fatalf("expected valid genesis-only chain, got errors: %v", result.Errors)
	}
	if result.ChainLength != 1 || result.TotalArtifacts != 0 {
		t.Errorf("unexpected summary: %+v", result)
	}
}

// Scenario 2: a single GOVERNMENT-tier artifact with a clean trust report
// auto-mints without any human consent step.
func TestLedgerSingleGovernmentArtifactAutoMints(t *testing.T) {
	l := newTestLedger(t, nil) // no provider: an auto-mint never needs one

	a := doc("ART-GOV-1", "CASE-1", artifact.TierGovernment, "the filing was submitted on the stated date")
	if err := l.Submit(a); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", res.Rejected)
	}
	if len(res.Minted) != 1 {
		t.Fatalf("expected 1 block minted, got %d", len(res.Minted))
	}
	if len(res.Decisions) != 1 || res.Decisions[0].Decision != consent.DecisionAutoMint {
		t.Fatalf("expected a single AUTO_MINT decision, got %+v", res.Decisions)
	}

	got, ok := l.Get("ART-GOV-1")
	if !ok || got.ID != "ART-GOV-1" {
		t.Fatalf("expected ART-GOV-1 to be queryable after mint")
	}
}

// Scenario 3: C depends on B, B depends on A; the resolver layers them and
// MintPending seals one block per layer, in dependency order, within a
// single pass.
func TestLedgerDependencyLayering(t *testing.T) {
	l := newTestLedger(t, &grantingProvider{})

	a := doc("ART-A", "CASE-1", artifact.TierGovernment, "root record")
	b := doc("ART-B", "CASE-1", artifact.TierGovernment, "depends on root")
	b.Dependencies = []string{"ART-A"}
	c := doc("ART-C", "CASE-1", artifact.TierGovernment, "depends on B")
	c.Dependencies = []string{"ART-B"}

	for _, art := range []*artifact.Artifact{a, b, c} {
		if err := l.Submit(art); err != nil {
			t.Fatalf("Submit %s: %v", art.ID, err)
		}
	}

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if !res.Resolution.Valid {
		t.Fatalf("expected a valid resolution, got unresolvable: %+v", res.Resolution.Unresolvable)
	}
	if len(res.Resolution.Layers) != 3 {
		t.Fatalf("expected 3 layers, got %d: %v", len(res.Resolution.Layers), res.Resolution.Layers)
	}
	if len(res.Minted) != 3 {
		t.Fatalf("expected 3 blocks minted (one per layer), got %d", len(res.Minted))
	}

	if _, ok := l.Get("ART-A"); !ok {
		t.Fatal("expected ART-A to be minted")
	}
	if _, ok := l.Get("ART-B"); !ok {
		t.Fatal("expected ART-B to be minted")
	}
	if _, ok := l.Get("ART-C"); !ok {
		t.Fatal("expected ART-C to be minted")
	}

	proofA, err := l.Prove("ART-A")
	if err != nil {
		t.Fatalf("Prove ART-A: %v", err)
	}
	proofC, err := l.Prove("ART-C")
	if err != nil {
		t.Fatalf("Prove ART-C: %v", err)
	}
	if proofA.BlockIndex >= proofC.BlockIndex {
		t.Errorf("expected ART-A to be minted in an earlier block than ART-C, got %d vs %d", proofA.BlockIndex, proofC.BlockIndex)
	}
}

// Scenario 4: X requires Y and Y requires X; the resolver rejects the cycle
// and MintPending mints nothing.
func TestLedgerCycleRejected(t *testing.T) {
	l := newTestLedger(t, &grantingProvider{})

	x := doc("ART-X", "CASE-1", artifact.TierGovernment, "x")
	x.Dependencies = []string{"ART-Y"}
	y := doc("ART-Y", "CASE-1", artifact.TierGovernment, "y")
	y.Dependencies = []string{"ART-X"}

	if err := l.Submit(x); err != nil {
		t.Fatalf("Submit x: %v", err)
	}
	if err := l.Submit(y); err != nil {
		t.Fatalf("Submit y: %v", err)
	}

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if res.Resolution.Valid {
		t.Fatal("expected resolution to be invalid due to a cycle")
	}
	if len(res.Minted) != 0 {
		t.Fatalf("expected nothing minted when the resolution is invalid, got %d blocks", len(res.Minted))
	}
	if len(res.Resolution.Unresolvable) != 2 {
		t.Fatalf("expected both cyclic artifacts marked unresolvable, got %+v", res.Resolution.Unresolvable)
	}

	result := l.ValidateChain()
	if result.ChainLength != 1 {
		t.Errorf("expected the chain to remain genesis-only after a rejected cycle, got length %d", result.ChainLength)
	}
}

// Scenario 5: two artifacts sharing a case_id directly contradict each
// other via an antonym pair ("owns" / "does not own"). The higher-tier,
// self-authenticating artifact wins the contradiction; a third, unrelated
// artifact mints alongside them. All three end up minted with verifying
// inclusion proofs.
func TestLedgerContradictionResolvedAllThreeMinted(t *testing.T) {
	l := newTestLedger(t, &grantingProvider{})

	high := doc("ART-HIGH", "CASE-1", artifact.TierSelfAuthenticating, "the deed shows the party owns the parcel")
	low := doc("ART-LOW", "CASE-1", artifact.TierUncorroboratedPerson, "the witness says the party does not own the parcel")
	other := doc("ART-OTHER", "CASE-2", artifact.TierBusinessRecords, "an unrelated business record")

	for _, art := range []*artifact.Artifact{high, low, other} {
		if err := l.Submit(art); err != nil {
			t.Fatalf("Submit %s: %v", art.ID, err)
		}
	}

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", res.Rejected)
	}
	if len(res.Minted) != 1 {
		t.Fatalf("expected all three artifacts sealed in a single block, got %d blocks", len(res.Minted))
	}
	if len(res.Minted[0].Artifacts) != 3 {
		t.Fatalf("expected 3 artifacts in the minted block, got %d", len(res.Minted[0].Artifacts))
	}

	lowCleared := false
	for _, d := range res.Decisions {
		if d.ArtifactID == "ART-LOW" {
			lowCleared = lowCleared || d.Decision != consent.DecisionReject
		}
	}
	if !lowCleared {
		t.Error("expected ART-LOW's contradiction decision to clear via the granting consent provider")
	}

	for _, id := range []string{"ART-HIGH", "ART-LOW", "ART-OTHER"} {
		proof, err := l.Prove(id)
		if err != nil {
			t.Fatalf("Prove %s: %v", id, err)
		}
		ok, verr := query.Verify(proof)
		if verr != nil {
			t.Fatalf("verify %s: %v", id, verr)
		}
		if !ok {
			t.Errorf("expected proof for %s to verify", id)
		}
	}
}

// Scenario 6: exporting the chain, flipping one bit of a stored
// content_hash field in block 3, and reimporting must be rejected outright —
// spec §6 requires a snapshot be verified on import, not merely importable
// and separately discovered broken — naming block 3's Merkle-root mismatch.
func TestLedgerTamperDetectionViaExportImport(t *testing.T) {
	l := newTestLedger(t, nil)

	ids := []string{"ART-1", "ART-2", "ART-3"}
	for _, id := range ids {
		a := doc(id, "CASE-1", artifact.TierGovernment, "record "+id)
		if err := l.Submit(a); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if _, err := l.MintPending(context.Background()); err != nil {
			t.Fatalf("MintPending: %v", err)
		}
	}

	data, err := l.ExportChain()
	if err != nil {
		t.Fatalf("ExportChain: %v", err)
	}

	tampered := flipContentHashBit(t, data, 3)

	err = l.ImportChain(tampered)
	if err == nil {
		t.Fatal("expected ImportChain to reject a tampered snapshot")
	}
	if !strings.Contains(err.Error(), "block 3") || !strings.Contains(err.Error(), "merkle_root mismatch") {
		t.Errorf("expected ImportChain's error to name a merkle_root mismatch in block 3, got: %v", err)
	}

	// A rejected import must leave the ledger's existing chain untouched.
	result := l.ValidateChain()
	if !result.Valid {
		t.Errorf("expected the ledger's chain to remain valid after a rejected import, got errors: %v", result.Errors)
	}
}

// flipContentHashBit finds the blockIndex-th block in the snapshot JSON and
// flips one hex digit of its first artifact's content_hash field, corrupting
// the Merkle leaf input without touching the document's structure.
func flipContentHashBit(t *testing.T, data []byte, blockIndex int) []byte {
	t.Helper()
	s := string(data)
	marker := "\"index\": " + strconv.Itoa(blockIndex) + ","
	idx := strings.Index(s, marker)
	if idx < 0 {
		t.Fatalf("marker %q not found in export", marker)
	}
	hashKey := "\"content_hash\": \""
	hi := strings.Index(s[idx:], hashKey)
	if hi < 0 {
		t.Fatalf("content_hash field not found after block %d marker", blockIndex)
	}
	pos := idx + hi + len(hashKey)
	b := []byte(s)
	if b[pos] == 'f' {
		b[pos] = '0'
	} else {
		b[pos] = 'f'
	}
	return b
}

// Idempotence: MintPending on an empty queue is a no-op, minting nothing
// and leaving the chain unchanged.
func TestLedgerMintPendingOnEmptyQueueIsNoop(t *testing.T) {
	l := newTestLedger(t, nil)

	before := l.ValidateChain()

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if len(res.Minted) != 0 {
		t.Errorf("expected no blocks minted on an empty pending queue, got %d", len(res.Minted))
	}

	after := l.ValidateChain()
	if before.ChainLength != after.ChainLength {
		t.Errorf("expected chain length unchanged, got %d -> %d", before.ChainLength, after.ChainLength)
	}
}

// Idempotence: submitting an id already present fails without mutating
// ledger state.
func TestLedgerSubmitDuplicateIDFailsWithoutSideEffect(t *testing.T) {
	l := newTestLedger(t, nil)

	a := doc("ART-DUP", "CASE-1", artifact.TierGovernment, "first")
	if err := l.Submit(a); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	dup := doc("ART-DUP", "CASE-1", artifact.TierGovernment, "second")
	err := l.Submit(dup)
	if !errors.Is(err, chainledger.ErrDuplicateArtifactID) {
		t.Fatalf("expected ErrDuplicateArtifactID, got %v", err)
	}

	res, err := l.MintPending(context.Background())
	if err != nil {
		t.Fatalf("MintPending: %v", err)
	}
	if len(res.Minted) != 1 || len(res.Minted[0].Artifacts) != 1 {
		t.Fatalf("expected exactly the first submission to mint, got %+v", res.Minted)
	}
}
