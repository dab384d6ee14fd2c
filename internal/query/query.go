// Copyright 2025 Certen Protocol
//
// Query service — point lookups, filtered scans, and Merkle inclusion proofs
// over a sealed chain. Grounded on the teacher's pkg/merkle/receipt.go
// portable-proof shape (Start/Anchor/Entries, independently re-verifiable
// without trusting the ledger), adapted to the internal/merkletree
// SHA3-256 tree and canonical artifact hashes (hashutil.ArtifactHash).

package query

import (
	"encoding/hex"
	"fmt"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/chainledger"
	"github.com/certen/evidence-ledger/internal/hashutil"
	"github.com/certen/evidence-ledger/internal/merkletree"
)

// Filter selects artifacts by optional case id, tier, and type. A zero value
// field is not applied as a constraint.
type Filter struct {
	CaseID string
	Tier   artifact.Tier
	Type   artifact.Type
}

func (f Filter) matches(a *artifact.Artifact) bool {
	if f.CaseID != "" && a.CaseID != f.CaseID {
		return false
	}
	if f.Tier != "" && a.Tier != f.Tier {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}

// Get performs a point lookup for a minted artifact by id.
func Get(chain *chainledger.Chain, id string) (*artifact.Artifact, bool) {
	loc, ok := chain.ArtifactIndex[id]
	if !ok {
		return nil, false
	}
	block := chain.Blocks[loc.BlockIndex]
	if loc.Position < 0 || loc.Position >= len(block.Artifacts) {
		return nil, false
	}
	return block.Artifacts[loc.Position], true
}

// GetByContentHash performs a point lookup for a minted artifact by its
// content hash, hex-encoded (see artifact.Artifact.ContentHashHex). Spec §4.7
// names this alongside Get as the two required point-lookup operations.
func GetByContentHash(chain *chainledger.Chain, hash string) (*artifact.Artifact, bool) {
	for _, block := range chain.Blocks {
		for _, a := range block.Artifacts {
			if a.ContentHashHex() == hash {
				return a, true
			}
		}
	}
	return nil, false
}

// Query scans every minted block and returns artifacts matching f, in chain
// order (block index, then position within block).
func Query(chain *chainledger.Chain, f Filter) []*artifact.Artifact {
	var out []*artifact.Artifact
	for _, block := range chain.Blocks {
		for _, a := range block.Artifacts {
			if f.matches(a) {
				out = append(out, a)
			}
		}
	}
	return out
}

// Proof is a portable Merkle inclusion proof for one minted artifact: it
// carries everything needed to re-verify membership without access to the
// chain, following the teacher's Receipt.Validate self-containment.
type Proof struct {
	ArtifactID string                    `json:"artifact_id"`
	BlockIndex uint64                    `json:"block_index"`
	MerkleRoot string                    `json:"merkle_root"`
	LeafHash   string                    `json:"leaf_hash"`
	Path       []merkletree.ProofNode    `json:"path"`
}

// Prove builds an inclusion proof for artifact id against the block it was
// minted into.
func Prove(chain *chainledger.Chain, id string) (*Proof, error) {
	loc, ok := chain.ArtifactIndex[id]
	if !ok {
		return nil, fmt.Errorf("prove: artifact %s is not minted", id)
	}
	block := chain.Blocks[loc.BlockIndex]

	leaves := make([][32]byte, len(block.Artifacts))
	for i, a := range block.Artifacts {
		leaves[i] = hashutil.ArtifactHash(a)
	}
	tree, err := merkletree.Build(leaves)
	if err != nil {
		return nil, fmt.Errorf("prove: rebuild merkle tree for block %d: %w", loc.BlockIndex, err)
	}
	incl, err := tree.Proof(loc.Position)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}

	return &Proof{
		ArtifactID: id,
		BlockIndex: block.Index,
		MerkleRoot: block.MerkleRoot,
		LeafHash:   hashutil.Hex(incl.LeafHash),
		Path:       incl.Path,
	}, nil
}

// Verify independently re-derives the Merkle root from p's leaf hash and
// path and compares it against p.MerkleRoot.
func Verify(p *Proof) (bool, error) {
	leafBytes, err := hexDecode32(p.LeafHash)
	if err != nil {
		return false, fmt.Errorf("verify: leaf_hash: %w", err)
	}
	rootBytes, err := hexDecode32(p.MerkleRoot)
	if err != nil {
		return false, fmt.Errorf("verify: merkle_root: %w", err)
	}

	proof := &merkletree.InclusionProof{LeafHash: leafBytes, Path: p.Path, Root: rootBytes}
	return merkletree.VerifyProof(leafBytes, proof, rootBytes), nil
}

func hexDecode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
