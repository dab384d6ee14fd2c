// Copyright 2025 Certen Protocol
//
// Block + chain data model. Grounded on the teacher's pkg/consensus
// ValidatorBlock (canonical proof-bundle struct, derived-field commitment
// pattern) generalized from a cross-chain proof bundle to a sealed batch of
// evidentiary artifacts, and on pkg/merkle/tree.go's level-by-level Merkle
// build (see internal/merkletree).

package chainledger

import (
	"strings"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// ZeroHash is the previous_hash value for the genesis block: 64 zero
// characters, per spec.
var ZeroHash = strings.Repeat("0", 64)

// Block is a sealed, immutable container for an ordered set of artifacts.
type Block struct {
	Index        uint64               `json:"index"`
	PreviousHash string               `json:"previous_hash"`
	Timestamp    time.Time            `json:"timestamp"`
	Artifacts    []*artifact.Artifact `json:"artifacts"`
	MerkleRoot   string               `json:"merkle_root"`
	Nonce        uint64               `json:"nonce"`
	Hash         string               `json:"hash"`
	Miner        string               `json:"miner"`
}

// IsGenesis reports whether b is the chain's first block.
func (b *Block) IsGenesis() bool {
	return b.Index == 0
}
