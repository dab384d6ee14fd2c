// Copyright 2025 Certen Protocol
//
// Block hashing — length-prefixed canonical encoding + SHA3-256, the same
// determinism discipline as hashutil.Canonical, applied to block headers.

package chainledger

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendLenPrefixed(buf []byte, field []byte) []byte {
	buf = appendUint64(buf, uint64(len(field)))
	return append(buf, field...)
}

// headerBytes builds the canonical byte encoding of a block header, the
// input to both mining and hash verification.
func headerBytes(b *Block) []byte {
	var buf []byte
	buf = appendUint64(buf, b.Index)
	buf = appendLenPrefixed(buf, []byte(b.PreviousHash))
	buf = appendUint64(buf, uint64(b.Timestamp.UnixNano()))
	buf = appendLenPrefixed(buf, []byte(b.MerkleRoot))
	buf = appendUint64(buf, b.Nonce)
	buf = appendLenPrefixed(buf, []byte(b.Miner))
	return buf
}

// ComputeHash returns the SHA3-256 hex digest of b's canonical header.
func ComputeHash(b *Block) string {
	sum := sha3.Sum256(headerBytes(b))
	return hex.EncodeToString(sum[:])
}

// meetsDifficulty reports whether hexHash begins with difficulty zero hex
// characters.
func meetsDifficulty(hexHash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(hexHash) < difficulty {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hexHash[i] != '0' {
			return false
		}
	}
	return true
}
