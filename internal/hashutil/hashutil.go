// Copyright 2025 Certen Protocol
//
// Canonical artifact hashing — the single deterministic byte projection of an
// artifact that ever feeds a hash, grounded on the teacher's
// commitment.HashConcat/HashBytes helpers but adapted to SHA3-256 and an
// explicit length-prefixed field order instead of canonical JSON, per the
// spec's weight_millis / fixed-projection requirements.

package hashutil

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// WeightMillis converts a [0,1] weight to a u16 millis integer, avoiding
// floating-point ambiguity in hashed bytes. Per §9: never hash a raw float.
func WeightMillis(weight float64) uint16 {
	return uint16(math.Round(weight * 1000))
}

// Canonical returns the canonical serialization of an artifact used as the
// sole input to its hash: the fields (id, content_hash, statement, type,
// tier, authentication_method, weight_millis, case_id, submitted_at),
// each preceded by its encoded byte length.
func Canonical(a *artifact.Artifact) []byte {
	buf := make([]byte, 0, 256)
	buf = appendLenPrefixed(buf, []byte(a.ID))
	buf = appendLenPrefixed(buf, a.ContentHash[:])
	buf = appendLenPrefixed(buf, []byte(a.Statement))
	buf = appendLenPrefixed(buf, []byte(a.Type))
	buf = appendLenPrefixed(buf, []byte(a.Tier))
	buf = appendLenPrefixed(buf, []byte(a.AuthenticationMethod))

	millis := make([]byte, 2)
	binary.BigEndian.PutUint16(millis, WeightMillis(a.Weight))
	buf = appendLenPrefixed(buf, millis)

	buf = appendLenPrefixed(buf, []byte(a.CaseID))

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(a.SubmittedAt.UnixNano()))
	buf = appendLenPrefixed(buf, ts)

	return buf
}

func appendLenPrefixed(dst, field []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, field...)
	return dst
}

// ArtifactHash returns the SHA3-256 hash of an artifact's canonical bytes.
func ArtifactHash(a *artifact.Artifact) [32]byte {
	return sha3.Sum256(Canonical(a))
}

// ContentHash returns the SHA3-256 hash of raw external content. The content
// itself never enters the core — only this hash does.
func ContentHash(content []byte) [32]byte {
	return sha3.Sum256(content)
}

// Hex returns the lowercase hex encoding of a 32-byte hash.
func Hex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// ZeroHashHex is the 64 lowercase-hex-character zero hash used as the
// genesis block's previous_hash.
var ZeroHashHex = strings.Repeat("0", 64)
