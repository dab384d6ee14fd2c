// Copyright 2025 Certen Protocol
//
// Chain — ordered sequence of sealed blocks plus the FIFO pending-artifact
// bag awaiting minting. Single-writer concurrency, guarded by sync.RWMutex,
// following the teacher's pkg/ledger.LedgerStore single-writer convention
// (there: consensus commit thread; here: the ledger orchestrator's Submit/
// MintPending calls).

package chainledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/hashutil"
	"github.com/certen/evidence-ledger/internal/merkletree"
)

// ArtifactLocation records where a minted artifact lives.
type ArtifactLocation struct {
	BlockIndex int
	Position   int
}

// Chain holds the full block history and the FIFO bag of artifacts not yet
// sealed into a block.
type Chain struct {
	mu sync.RWMutex

	Difficulty   int
	IterationCap int
	Miner        string

	Blocks           []*Block
	PendingArtifacts []*artifact.Artifact
	ArtifactIndex    map[string]ArtifactLocation

	logger *log.Logger
}

// Config bundles the construction-time knobs for a new Chain.
type Config struct {
	Difficulty   int
	IterationCap int
	Miner        string
	Logger       *log.Logger
}

// DefaultConfig mirrors spec §4.1/§5 defaults: difficulty 4, 10^7-nonce cap.
func DefaultConfig() Config {
	return Config{
		Difficulty:   4,
		IterationCap: 10_000_000,
		Miner:        "evidence-ledger",
		Logger:       log.New(log.Writer(), "[Chain] ", log.LstdFlags),
	}
}

// New constructs a chain with a mined genesis block.
func New(cfg Config) (*Chain, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Chain] ", log.LstdFlags)
	}
	if cfg.Difficulty <= 0 {
		cfg.Difficulty = DefaultConfig().Difficulty
	}
	if cfg.IterationCap <= 0 {
		cfg.IterationCap = DefaultConfig().IterationCap
	}

	c := &Chain{
		Difficulty:    cfg.Difficulty,
		IterationCap:  cfg.IterationCap,
		Miner:         cfg.Miner,
		ArtifactIndex: make(map[string]ArtifactLocation),
		logger:        cfg.Logger,
	}

	genesis := &Block{
		Index:        0,
		PreviousHash: ZeroHash,
		Timestamp:    time.Unix(0, 0).UTC(),
		Artifacts:    nil,
		MerkleRoot:   merkleRootOf(nil),
		Miner:        cfg.Miner,
	}
	if err := Mine(context.Background(), genesis, cfg.Difficulty, cfg.IterationCap); err != nil {
		return nil, fmt.Errorf("mine genesis block: %w", err)
	}
	c.Blocks = append(c.Blocks, genesis)
	c.logger.Printf("genesis block sealed: hash=%s", genesis.Hash)
	return c, nil
}

// Head returns the most recently sealed block.
func (c *Chain) Head() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Blocks[len(c.Blocks)-1]
}

// MintedIDs returns the set of artifact ids already sealed into a block.
func (c *Chain) MintedIDs() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make(map[string]bool, len(c.ArtifactIndex))
	for id := range c.ArtifactIndex {
		ids[id] = true
	}
	return ids
}

// MintedArtifacts returns every artifact already sealed into a block, across
// all blocks, in no particular order. Callers that need to compare a new
// submission against prior history (e.g. the contradiction scan in §4.3) use
// this alongside the pending bag.
func (c *Chain) MintedArtifacts() []*artifact.Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*artifact.Artifact, 0, len(c.ArtifactIndex))
	for _, block := range c.Blocks {
		out = append(out, block.Artifacts...)
	}
	return out
}

// ErrDuplicateArtifactID is returned by Submit when an artifact with the same
// id is already pending or already minted. The submission has no side effect.
var ErrDuplicateArtifactID = errors.New("chainledger: artifact id already present")

// Submit appends an artifact to the pending bag. It fails without mutating
// the chain if a.ID is already pending or already minted into a block.
func (c *Chain) Submit(a *artifact.Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ArtifactIndex[a.ID]; ok {
		return fmt.Errorf("submit %s: %w", a.ID, ErrDuplicateArtifactID)
	}
	for _, pending := range c.PendingArtifacts {
		if pending.ID == a.ID {
			return fmt.Errorf("submit %s: %w", a.ID, ErrDuplicateArtifactID)
		}
	}
	c.PendingArtifacts = append(c.PendingArtifacts, a)
	return nil
}

// Pending returns a snapshot of the current pending bag.
func (c *Chain) Pending() []*artifact.Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*artifact.Artifact, len(c.PendingArtifacts))
	copy(out, c.PendingArtifacts)
	return out
}

// MintLayer assembles, mines, and appends a block containing exactly the
// artifacts named in layer, in the given order, removing them from the
// pending bag. layer must be a subset of ids currently pending.
func (c *Chain) MintLayer(ctx context.Context, layer []string) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[string]*artifact.Artifact, len(c.PendingArtifacts))
	for _, a := range c.PendingArtifacts {
		byID[a.ID] = a
	}

	ordered := make([]*artifact.Artifact, 0, len(layer))
	for _, id := range layer {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("mint layer: artifact %s is not pending", id)
		}
		ordered = append(ordered, a)
	}

	head := c.Blocks[len(c.Blocks)-1]
	block := &Block{
		Index:        head.Index + 1,
		PreviousHash: head.Hash,
		Timestamp:    nowAfter(head.Timestamp),
		Artifacts:    ordered,
		MerkleRoot:   merkleRootOf(ordered),
		Miner:        c.Miner,
	}

	if err := Mine(ctx, block, c.Difficulty, c.IterationCap); err != nil {
		return nil, fmt.Errorf("mint layer: %w", err)
	}

	remaining := c.PendingArtifacts[:0]
	inLayer := make(map[string]bool, len(layer))
	for _, id := range layer {
		inLayer[id] = true
	}
	for _, a := range c.PendingArtifacts {
		if !inLayer[a.ID] {
			remaining = append(remaining, a)
		}
	}
	c.PendingArtifacts = remaining

	for pos, a := range ordered {
		c.ArtifactIndex[a.ID] = ArtifactLocation{BlockIndex: len(c.Blocks), Position: pos}
	}
	c.Blocks = append(c.Blocks, block)

	c.logger.Printf("block %d sealed: %d artifacts, hash=%s", block.Index, len(ordered), block.Hash)
	return block, nil
}

// nowAfter returns a timestamp strictly after prev, using the real clock but
// never regressing: if the wall clock has not advanced past prev (rapid
// consecutive blocks in tests), it nudges forward by one nanosecond.
func nowAfter(prev time.Time) time.Time {
	t := time.Now().UTC()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}

// merkleRootOf computes the hex Merkle root over an artifact list's canonical
// hashes (hashutil.ArtifactHash). An empty list (the genesis block) roots
// to the all-zero hash rather than erroring.
func merkleRootOf(artifacts []*artifact.Artifact) string {
	if len(artifacts) == 0 {
		return hashutil.ZeroHashHex
	}
	leaves := make([][32]byte, len(artifacts))
	for i, a := range artifacts {
		leaves[i] = hashutil.ArtifactHash(a)
	}
	root, err := merkletree.Root(leaves)
	if err != nil {
		return hashutil.ZeroHashHex
	}
	return hashutil.Hex(root)
}
