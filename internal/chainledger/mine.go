// Copyright 2025 Certen Protocol
//
// Proof-of-work sealing. Mining iterates nonces from zero, checking
// cancellation at each attempt, following the suspension-point discipline of
// the teacher's pkg/batch/scheduler.go run loop (select against ctx.Done()
// at each iteration boundary) generalized from a wall-clock ticker to a
// per-nonce check.

package chainledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrMiningExceededBudget is returned when no nonce below the configured
// iteration cap satisfies the difficulty target.
var ErrMiningExceededBudget = errors.New("mining exceeded iteration budget")

// ErrMiningCancelled is returned when ctx is cancelled mid-mine. No partial
// state is left on the block: Nonce and Hash are only set on success.
var ErrMiningCancelled = errors.New("mining cancelled")

// Mine searches for a nonce such that ComputeHash(b) begins with difficulty
// zero hex digits, trying nonces 0..iterationCap-1. On success it sets
// b.Nonce and b.Hash. On failure or cancellation, b is left unmodified.
func Mine(ctx context.Context, b *Block, difficulty int, iterationCap int) error {
	candidate := *b
	for nonce := uint64(0); nonce < uint64(iterationCap); nonce++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrMiningCancelled, ctx.Err())
		default:
		}

		candidate.Nonce = nonce
		h := ComputeHash(&candidate)
		if meetsDifficulty(h, difficulty) {
			b.Nonce = nonce
			b.Hash = h
			return nil
		}
	}
	return ErrMiningExceededBudget
}
