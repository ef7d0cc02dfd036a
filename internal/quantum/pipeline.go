// Package quantum implements the quantum-inspired hash derivation
// pipeline: an initial SHA-256 digest expanded into eight derived
// states ("superposition"), XOR-folded into one buffer
// ("entanglement"), masked by a measurement basis ("collapse"), and
// iterated for a configurable number of rounds.
//
// The pipeline is a pure function of (input, basis, rounds). It is not
// a cryptographic primitive and makes no security claims; it exists to
// demonstrate deterministic bit-mixing and output sensitivity.
package quantum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
)

const (
	// DigestSize is the length of every buffer in the pipeline
	DigestSize = sha256.Size
	// NumStates is the number of superposition states per round
	NumStates = 8
	// MinRounds and MaxRounds bound the caller-supplied round count
	MinRounds = 1
	MaxRounds = 10
)

// ErrInvalidConfiguration is returned for caller contract violations:
// a round count outside [MinRounds, MaxRounds] or an unknown basis.
// It is rejected before any byte processing.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// StateSet holds one round's superposition states.
type StateSet [NumStates][DigestSize]byte

// Result is the output of a pipeline run.
type Result struct {
	// Digest is the last round's collapsed buffer
	Digest [DigestSize]byte
	// Hash is Digest rendered as 64 lowercase hex characters
	Hash string
	// FirstRoundStates is the StateSet generated in round one,
	// retained for the visualization layer
	FirstRoundStates StateSet
	// Rounds and Basis echo the validated configuration
	Rounds int
	Basis  Basis
}

// stateSalts are the per-state derivation constants; one distinct salt
// per superposition state.
var stateSalts = [NumStates]byte{0x63, 0x9E, 0xC5, 0x17, 0x38, 0xAB, 0xD4, 0x7F}

// Digest computes the baseline SHA-256 digest of the input. Defined
// for all inputs including empty.
func Digest(input []byte) [DigestSize]byte {
	return sha256.Sum256(input)
}

// deriveConstant is the superposition mask for state i at byte
// position p. Purely a function of (i, p).
func deriveConstant(i, p int) byte {
	return bits.RotateLeft8(stateSalts[i], p%8) ^ byte(p)
}

// GenerateStates expands a seed digest into NumStates derived states.
// For state i the seed is XORed position-wise with deriveConstant(i, p)
// and the transformed buffer is re-digested. The re-digest matters:
// states that were plain XOR masks of the seed would cancel it out of
// the even-count fold in Merge, leaving a constant pipeline.
func GenerateStates(seed [DigestSize]byte) StateSet {
	var states StateSet
	var transformed [DigestSize]byte
	for i := 0; i < NumStates; i++ {
		for p := 0; p < DigestSize; p++ {
			transformed[p] = seed[p] ^ deriveConstant(i, p)
		}
		states[i] = sha256.Sum256(transformed[:])
	}
	return states
}

// Merge folds all states into one buffer via byte-wise XOR. XOR is
// associative and commutative, so accumulation order is irrelevant,
// but every state participates.
func Merge(states StateSet) [DigestSize]byte {
	merged := states[0]
	for i := 1; i < NumStates; i++ {
		for p := 0; p < DigestSize; p++ {
			merged[p] ^= states[i][p]
		}
	}
	return merged
}

// Collapse applies the basis mask to the merged buffer. The mask is a
// single constant byte XORed into every position; Standard is the
// identity. XOR with a constant is self-inverse, so collapsing twice
// in the same basis restores the input.
func Collapse(buf [DigestSize]byte, basis Basis) [DigestSize]byte {
	mask := collapseMasks[basis]
	if mask == 0 {
		return buf
	}
	for p := 0; p < DigestSize; p++ {
		buf[p] ^= mask
	}
	return buf
}

// RoundObserver receives each round's collapsed digest as the pipeline
// runs. round is 1-based.
type RoundObserver func(round int, digest [DigestSize]byte)

// Run executes the full pipeline: seed digest, then rounds iterations
// of superposition, entanglement and collapse. The basis is fixed for
// the whole run.
func Run(input []byte, basis Basis, rounds int) (Result, error) {
	return RunObserved(input, basis, rounds, nil)
}

// RunObserved is Run with an optional per-round observer. The observer
// is invoked after each round's collapse with the round number and the
// collapsed digest; a nil observer is ignored.
func RunObserved(input []byte, basis Basis, rounds int, observe RoundObserver) (Result, error) {
	if rounds < MinRounds || rounds > MaxRounds {
		return Result{}, fmt.Errorf("%w: rounds must be in [%d, %d], got %d",
			ErrInvalidConfiguration, MinRounds, MaxRounds, rounds)
	}
	if !basis.Valid() {
		return Result{}, fmt.Errorf("%w: unknown measurement basis %d",
			ErrInvalidConfiguration, int(basis))
	}

	current := Digest(input)
	var firstStates StateSet

	for round := 1; round <= rounds; round++ {
		states := GenerateStates(current)
		if round == 1 {
			firstStates = states
		}
		current = Collapse(Merge(states), basis)
		if observe != nil {
			observe(round, current)
		}
	}

	return Result{
		Digest:           current,
		Hash:             hex.EncodeToString(current[:]),
		FirstRoundStates: firstStates,
		Rounds:           rounds,
		Basis:            basis,
	}, nil
}
