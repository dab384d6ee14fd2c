// Copyright 2025 Certen Protocol

package custody

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
)

func TestValidateEmptyChainIsMonotonic(t *testing.T) {
	r := Validate(nil, nil)
	if !r.Monotonic || !r.SignatureValid {
		t.Errorf("empty chain should be monotonic and signature-valid, got %+v", r)
	}
}

func TestValidateStrictlyIncreasing(t *testing.T) {
	base := time.Now()
	chain := []artifact.CustodyEntry{
		{Timestamp: base, Holder: "A", Action: "received"},
		{Timestamp: base.Add(time.Minute), Holder: "B", Action: "transferred"},
	}
	r := Validate(chain, nil)
	if !r.Monotonic {
		t.Errorf("expected monotonic chain")
	}
}

func TestValidateNonIncreasingFails(t *testing.T) {
	base := time.Now()
	chain := []artifact.CustodyEntry{
		{Timestamp: base, Holder: "A"},
		{Timestamp: base, Holder: "B"}, // equal, not strictly increasing
	}
	r := Validate(chain, nil)
	if r.Monotonic {
		t.Errorf("expected non-monotonic chain to fail")
	}
}

func TestNoopVerifierNeverFailsValidation(t *testing.T) {
	chain := []artifact.CustodyEntry{
		{Timestamp: time.Now(), Holder: "A", Signature: []byte("bogus")},
	}
	r := Validate(chain, NoopVerifier{})
	if !r.SignatureValid {
		t.Errorf("unconfigured verifier should never invalidate a chain")
	}
}

func TestEd25519VerifierDetectsTamperedSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	entry := artifact.CustodyEntry{Holder: "A", Action: "received", Hash: "deadbeef"}
	entry.Signature = ed25519.Sign(priv, custodyMessage(entry))

	v := NewEd25519Verifier(map[string]ed25519.PublicKey{"A": pub})
	ok, verifiable := v.Verify(entry)
	if !ok || !verifiable {
		t.Fatalf("expected valid signature, got ok=%v verifiable=%v", ok, verifiable)
	}

	entry.Action = "tampered"
	ok, verifiable = v.Verify(entry)
	if ok || !verifiable {
		t.Fatalf("expected tampered entry to fail verification, got ok=%v verifiable=%v", ok, verifiable)
	}
}
