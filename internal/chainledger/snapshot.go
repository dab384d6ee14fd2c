// Copyright 2025 Certen Protocol
//
// Chain snapshot export/import — the wire- and disk-stable JSON interchange
// format named in spec §6. Field shape is fixed: genesis_hash, difficulty,
// and a flat block list with UNIX-millisecond timestamps and lowercase
// 64-character hex hashes.

package chainledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
)

// SnapshotArtifact is the canonical on-disk projection of an artifact.
type SnapshotArtifact struct {
	ID                   string              `json:"id"`
	ContentHash          string              `json:"content_hash"`
	Statement            string              `json:"statement"`
	Type                 artifact.Type       `json:"type"`
	Tier                 artifact.Tier       `json:"tier"`
	AuthenticationMethod artifact.AuthMethod `json:"authentication_method"`
	CaseID               string              `json:"case_id,omitempty"`
	Weight               float64             `json:"weight"`
	SubmittedAt          int64               `json:"submitted_at"`
	SubmittedBy          string              `json:"submitted_by,omitempty"`
	SchemaVersion        int                 `json:"schema_version"`
}

// SnapshotBlock is the on-disk projection of a sealed Block.
type SnapshotBlock struct {
	Index        uint64             `json:"index"`
	PreviousHash string             `json:"previous_hash"`
	Timestamp    int64              `json:"timestamp"`
	Artifacts    []SnapshotArtifact `json:"artifacts"`
	MerkleRoot   string             `json:"merkle_root"`
	Nonce        uint64             `json:"nonce"`
	Hash         string             `json:"hash"`
	Miner        string             `json:"miner"`
}

// Snapshot is the full chain export document.
type Snapshot struct {
	GenesisHash string          `json:"genesis_hash"`
	Difficulty  int             `json:"difficulty"`
	Blocks      []SnapshotBlock `json:"blocks"`
}

// Export renders the chain to its wire-stable snapshot form.
func (c *Chain) Export() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &Snapshot{
		GenesisHash: c.Blocks[0].Hash,
		Difficulty:  c.Difficulty,
		Blocks:      make([]SnapshotBlock, len(c.Blocks)),
	}
	for i, b := range c.Blocks {
		snap.Blocks[i] = SnapshotBlock{
			Index:        b.Index,
			PreviousHash: b.PreviousHash,
			Timestamp:    b.Timestamp.UnixMilli(),
			MerkleRoot:   b.MerkleRoot,
			Nonce:        b.Nonce,
			Hash:         b.Hash,
			Miner:        b.Miner,
			Artifacts:    make([]SnapshotArtifact, len(b.Artifacts)),
		}
		for j, a := range b.Artifacts {
			snap.Blocks[i].Artifacts[j] = SnapshotArtifact{
				ID:                   a.ID,
				ContentHash:          a.ContentHashHex(),
				Statement:            a.Statement,
				Type:                 a.Type,
				Tier:                 a.Tier,
				AuthenticationMethod: a.AuthenticationMethod,
				CaseID:               a.CaseID,
				Weight:               a.Weight,
				SubmittedAt:          a.SubmittedAt.UnixMilli(),
				SubmittedBy:          a.SubmittedBy,
				SchemaVersion:        a.SchemaVersion,
			}
		}
	}
	return snap
}

// ExportJSON renders the chain snapshot as indented JSON.
func (c *Chain) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(c.Export(), "", "  ")
}

// ImportSnapshot reconstructs a Chain from a snapshot document and verifies
// it against every chain invariant before accepting it, per spec §6 ("snapshot
// verified on import; rejected if any invariant fails"). The reconstructed
// chain's artifacts carry only the fields preserved by the snapshot
// projection; callers that need full artifact fidelity must keep a separate
// authoritative store.
func ImportSnapshot(snap *Snapshot) (*Chain, error) {
	c, err := reconstructSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if result := c.Validate(); !result.Valid {
		return nil, fmt.Errorf("import snapshot: reconstructed chain failed validation: %v", result.Errors)
	}
	return c, nil
}

// ImportSnapshotUnvalidated reconstructs a Chain from a snapshot document
// without rejecting it on invariant failure, returning whatever invalid
// chain results so a caller can inspect it (e.g. with Validate) rather than
// just learn that it's broken. Used by introspection tools — the ledgerctl
// validate subcommand and tests that exercise tamper detection — never by
// code that accepts a snapshot as new authoritative state; use ImportSnapshot
// or ImportSnapshotJSON for that.
func ImportSnapshotUnvalidated(snap *Snapshot) (*Chain, error) {
	return reconstructSnapshot(snap)
}

func reconstructSnapshot(snap *Snapshot) (*Chain, error) {
	if len(snap.Blocks) == 0 {
		return nil, fmt.Errorf("import snapshot: no blocks")
	}

	c := &Chain{
		Difficulty:    snap.Difficulty,
		IterationCap:  DefaultConfig().IterationCap,
		ArtifactIndex: make(map[string]ArtifactLocation),
		logger:        DefaultConfig().Logger,
	}

	for i, sb := range snap.Blocks {
		block := &Block{
			Index:        sb.Index,
			PreviousHash: sb.PreviousHash,
			Timestamp:    time.UnixMilli(sb.Timestamp).UTC(),
			MerkleRoot:   sb.MerkleRoot,
			Nonce:        sb.Nonce,
			Hash:         sb.Hash,
			Miner:        sb.Miner,
			Artifacts:    make([]*artifact.Artifact, len(sb.Artifacts)),
		}
		for j, sa := range sb.Artifacts {
			a := &artifact.Artifact{
				ID:                   sa.ID,
				Statement:            sa.Statement,
				Type:                 sa.Type,
				Tier:                 sa.Tier,
				AuthenticationMethod: sa.AuthenticationMethod,
				CaseID:               sa.CaseID,
				Weight:               sa.Weight,
				SubmittedAt:          time.UnixMilli(sa.SubmittedAt).UTC(),
				SubmittedBy:          sa.SubmittedBy,
				SchemaVersion:        sa.SchemaVersion,
			}
			if err := decodeContentHash(sa.ContentHash, &a.ContentHash); err != nil {
				return nil, fmt.Errorf("import snapshot: block %d artifact %s: %w", i, sa.ID, err)
			}
			block.Artifacts[j] = a
			c.ArtifactIndex[a.ID] = ArtifactLocation{BlockIndex: i, Position: j}
		}
		c.Blocks = append(c.Blocks, block)
	}

	return c, nil
}

// ImportSnapshotJSON parses snapshot JSON bytes, reconstructs the chain, and
// verifies it before accepting it (see ImportSnapshot).
func ImportSnapshotJSON(data []byte) (*Chain, error) {
	snap, err := parseSnapshotJSON(data)
	if err != nil {
		return nil, err
	}
	return ImportSnapshot(snap)
}

// ImportSnapshotJSONUnvalidated parses snapshot JSON bytes and reconstructs
// the chain without rejecting it on invariant failure (see
// ImportSnapshotUnvalidated).
func ImportSnapshotJSONUnvalidated(data []byte) (*Chain, error) {
	snap, err := parseSnapshotJSON(data)
	if err != nil {
		return nil, err
	}
	return ImportSnapshotUnvalidated(snap)
}

func parseSnapshotJSON(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	return &snap, nil
}

func decodeContentHash(hexStr string, out *[32]byte) error {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("content_hash: expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return nil
}
