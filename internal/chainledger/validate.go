// Copyright 2025 Certen Protocol
//
// Chain validation — produces a structured result rather than failing
// loudly, following the teacher's VerificationResult AddError/AddWarning
// idiom (pkg/verification/unified_verifier.go).

package chainledger

import (
	"fmt"

	"github.com/certen/evidence-ledger/internal/artifact"
)

func sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// ValidationResult reports the outcome of validating a chain.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	ChainLength    int      `json:"chain_length"`
	TotalArtifacts int      `json:"total_artifacts"`
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, sprintf(format, args...))
	r.Valid = false
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, sprintf(format, args...))
}

// Validate checks the full chain against spec invariants: per-block link,
// Merkle root, hash/difficulty, monotonic timestamps; and cross-block
// uniqueness of artifact ids and content hashes.
func (c *Chain) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true, ChainLength: len(c.Blocks)}

	if len(c.Blocks) == 0 {
		result.addError("chain has no genesis block")
		return result
	}

	seenArtifactIDs := make(map[string]int) // id -> block index
	seenContentHashes := make(map[string]string) // content_hash hex -> artifact id

	genesis := c.Blocks[0]
	if genesis.Index != 0 {
		result.addError("genesis block index is %d, want 0", genesis.Index)
	}
	if genesis.PreviousHash != ZeroHash {
		result.addError("genesis previous_hash is %q, want %s", genesis.PreviousHash, ZeroHash)
	}

	for i, block := range c.Blocks {
		result.TotalArtifacts += len(block.Artifacts)

		if i > 0 {
			prev := c.Blocks[i-1]
			if block.Index != prev.Index+1 {
				result.addError("block %d: index %d does not follow previous index %d", i, block.Index, prev.Index)
			}
			if block.PreviousHash != prev.Hash {
				result.addError("block %d: previous_hash %q does not match prior block hash %q", i, block.PreviousHash, prev.Hash)
			}
			if !block.Timestamp.After(prev.Timestamp) {
				result.addError("block %d: timestamp %s is not strictly after prior block timestamp %s", i, block.Timestamp, prev.Timestamp)
			}
		}

		recomputedRoot := merkleRootOf(block.Artifacts)
		if recomputedRoot != block.MerkleRoot {
			result.addError("block %d: merkle_root mismatch: recomputed %s, stored %s", i, recomputedRoot, block.MerkleRoot)
		}

		recomputedHash := ComputeHash(block)
		if recomputedHash != block.Hash {
			result.addError("block %d: hash mismatch: recomputed %s, stored %s", i, recomputedHash, block.Hash)
		} else if !meetsDifficulty(block.Hash, c.Difficulty) {
			result.addError("block %d: hash %s does not satisfy difficulty %d", i, block.Hash, c.Difficulty)
		}

		for pos, a := range block.Artifacts {
			if prevIdx, dup := seenArtifactIDs[a.ID]; dup {
				result.addError("artifact id %s appears in both block %d and block %d", a.ID, prevIdx, i)
			}
			seenArtifactIDs[a.ID] = i

			hashHex := a.ContentHashHex()
			if owner, dup := seenContentHashes[hashHex]; dup {
				if !contentDuplicationAllowed(a, seenArtifactIDs) {
					result.addError("content_hash %s duplicated by artifact %s (first seen on %s)", hashHex, a.ID, owner)
				}
			} else {
				seenContentHashes[hashHex] = a.ID
			}

			idx, ok := c.ArtifactIndex[a.ID]
			if !ok {
				result.addError("artifact %s missing from artifact_index", a.ID)
			} else if idx.BlockIndex != i || idx.Position != pos {
				result.addError("artifact_index for %s is stale: recorded (%d,%d), actual (%d,%d)", a.ID, idx.BlockIndex, idx.Position, i, pos)
			}
		}
	}

	return result
}

// contentDuplicationAllowed reports whether a is permitted to share its
// content_hash with an earlier artifact: only amendment/placeholder types
// whose original_document_id reference is satisfied, i.e. names an artifact
// already seen earlier in the chain.
func contentDuplicationAllowed(a *artifact.Artifact, seenArtifactIDs map[string]int) bool {
	if a.Type != artifact.TypeAmendment && a.Type != artifact.TypePlaceholder {
		return false
	}
	if a.Metadata.OriginalDocumentID == "" || a.Metadata.OriginalDocumentID == a.ID {
		return false
	}
	_, satisfied := seenArtifactIDs[a.Metadata.OriginalDocumentID]
	return satisfied
}
