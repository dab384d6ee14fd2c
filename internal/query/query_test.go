// Copyright 2025 Certen Protocol

package query

import (
	"context"
	"testing"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/chainledger"
)

func newTestChain(t *testing.T) *chainledger.Chain {
	t.Helper()
	cfg := chainledger.DefaultConfig()
	cfg.Difficulty = 1
	c, err := chainledger.New(cfg)
	if err != nil {
		t.Fatalf("New chain: %v", err)
	}
	return c
}

func mintOne(t *testing.T, c *chainledger.Chain, a *artifact.Artifact) {
	t.Helper()
	c.Submit(a)
	if _, err := c.MintLayer(context.Background(), []string{a.ID}); err != nil {
		t.Fatalf("MintLayer: %v", err)
	}
}

func TestGetFindsMintedArtifact(t *testing.T) {
	c := newTestChain(t)
	a := &artifact.Artifact{ID: "ART-1", CaseID: "CASE-1", Tier: artifact.TierBusinessRecords, Type: artifact.TypeDocument, SubmittedAt: time.Now().UTC()}
	mintOne(t, c, a)

	got, ok := Get(c, "ART-1")
	if !ok || got.ID != "ART-1" {
		t.Fatalf("expected to find ART-1, got %+v ok=%v", got, ok)
	}

	if _, ok := Get(c, "GHOST"); ok {
		t.Error("expected GHOST to be not found")
	}
}

func TestQueryFiltersByCaseAndTier(t *testing.T) {
	c := newTestChain(t)
	mintOne(t, c, &artifact.Artifact{ID: "ART-1", CaseID: "CASE-1", Tier: artifact.TierBusinessRecords, Type: artifact.TypeDocument, SubmittedAt: time.Now().UTC()})
	mintOne(t, c, &artifact.Artifact{ID: "ART-2", CaseID: "CASE-2", Tier: artifact.TierGovernment, Type: artifact.TypeDocument, SubmittedAt: time.Now().UTC()})

	results := Query(c, Filter{CaseID: "CASE-1"})
	if len(results) != 1 || results[0].ID != "ART-1" {
		t.Errorf("expected only ART-1, got %+v", results)
	}

	results = Query(c, Filter{Tier: artifact.TierGovernment})
	if len(results) != 1 || results[0].ID != "ART-2" {
		t.Errorf("expected only ART-2, got %+v", results)
	}
}

func TestProveAndVerifyRoundTrip(t *testing.T) {
	c := newTestChain(t)
	a := &artifact.Artifact{ID: "ART-1", Tier: artifact.TierBusinessRecords, Type: artifact.TypeDocument, SubmittedAt: time.Now().UTC()}
	mintOne(t, c, a)

	proof, err := Prove(c, "ART-1")
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := Verify(proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("expected proof to verify")
	}
}

func TestVerifyRejectsTamperedLeaf(t *testing.T) {
	c := newTestChain(t)
	a := &artifact.Artifact{ID: "ART-1", Tier: artifact.TierBusinessRecords, Type: artifact.TypeDocument, SubmittedAt: time.Now().UTC()}
	mintOne(t, c, a)

	proof, err := Prove(c, "ART-1")
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.LeafHash = "ff" + proof.LeafHash[2:]

	ok, err := Verify(proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("expected tampered leaf hash to fail verification")
	}
}

func TestProveUnknownArtifactErrors(t *testing.T) {
	c := newTestChain(t)
	if _, err := Prove(c, "GHOST"); err == nil {
		t.Error("expected error proving an unminted artifact")
	}
}
