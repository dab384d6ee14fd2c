// Copyright 2025 Certen Protocol
//
// Chain-of-custody validation. Signature verification is modeled as an
// abstract capability, grounded on the teacher's anchor_proof.AttestationSigner
// (ed25519 sign/verify), generalized from "validator attestation" to
// "custody entry signature". An unconfigured verifier is "unverified but not
// invalid" per §9 — it never fails chain validation on its own.

package custody

import (
	"crypto/ed25519"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// Verifier checks a custody entry's signature. Implementations may consult an
// external PKI; the zero value (NoopVerifier) always reports "unverified".
type Verifier interface {
	// Verify reports whether entry's signature is valid. verifiable=false
	// means "not verifiable" (no verifier configured, or entry carries no
	// signature) rather than "invalid" — see §9.
	Verify(entry artifact.CustodyEntry) (ok bool, verifiable bool)
}

// Ed25519Verifier verifies custody-entry signatures against a fixed set of
// known holder public keys.
type Ed25519Verifier struct {
	keys map[string]ed25519.PublicKey
}

// NewEd25519Verifier builds a verifier from a holder-name -> public-key map.
func NewEd25519Verifier(keys map[string]ed25519.PublicKey) *Ed25519Verifier {
	return &Ed25519Verifier{keys: keys}
}

// Verify implements Verifier.
func (v *Ed25519Verifier) Verify(entry artifact.CustodyEntry) (ok bool, verifiable bool) {
	if len(entry.Signature) == 0 {
		return false, false
	}
	pub, known := v.keys[entry.Holder]
	if !known {
		return false, false
	}
	message := custodyMessage(entry)
	return ed25519.Verify(pub, message, entry.Signature), true
}

func custodyMessage(entry artifact.CustodyEntry) []byte {
	msg := make([]byte, 0, len(entry.Holder)+len(entry.Action)+len(entry.Hash)+8)
	msg = append(msg, []byte(entry.Holder)...)
	msg = append(msg, []byte(entry.Action)...)
	msg = append(msg, []byte(entry.Hash)...)
	return msg
}

// NoopVerifier treats every entry as unverifiable, never invalid.
type NoopVerifier struct{}

// Verify implements Verifier.
func (NoopVerifier) Verify(artifact.CustodyEntry) (ok bool, verifiable bool) { return false, false }

// MonotoneResult reports whether a custody chain's timestamps strictly
// increase, and whether every present signature verified.
type MonotoneResult struct {
	Monotonic      bool
	SignatureValid bool // true only if every present, verifiable signature checked out
}

// Validate checks strict timestamp monotonicity and, where a verifier is
// supplied, signature validity. A custody chain of length 0 is trivially
// monotonic and signature-valid.
func Validate(chain []artifact.CustodyEntry, v Verifier) MonotoneResult {
	result := MonotoneResult{Monotonic: true, SignatureValid: true}
	if v == nil {
		v = NoopVerifier{}
	}

	for i := 1; i < len(chain); i++ {
		if !chain[i].Timestamp.After(chain[i-1].Timestamp) {
			result.Monotonic = false
		}
	}

	for _, entry := range chain {
		ok, verifiable := v.Verify(entry)
		if verifiable && !ok {
			result.SignatureValid = false
		}
	}

	return result
}
