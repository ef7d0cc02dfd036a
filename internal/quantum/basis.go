package quantum

import (
	"fmt"
	"strings"
)

// Basis selects the constant mask applied during measurement collapse.
type Basis int

const (
	// BasisStandard leaves the merged buffer unchanged
	BasisStandard Basis = iota
	// BasisHadamard XORs every byte with 0xAA
	BasisHadamard
	// BasisPhaseShift XORs every byte with 0x55
	BasisPhaseShift
)

// collapseMasks maps each basis to its per-byte XOR mask.
// BasisStandard maps to 0x00, which is the identity under XOR.
var collapseMasks = map[Basis]byte{
	BasisStandard:   0x00,
	BasisHadamard:   0xAA,
	BasisPhaseShift: 0x55,
}

// String returns the wire name of the basis
func (b Basis) String() string {
	switch b {
	case BasisStandard:
		return "standard"
	case BasisHadamard:
		return "hadamard"
	case BasisPhaseShift:
		return "phase"
	default:
		return fmt.Sprintf("basis(%d)", int(b))
	}
}

// Valid reports whether b is one of the three defined bases
func (b Basis) Valid() bool {
	_, ok := collapseMasks[b]
	return ok
}

// ParseBasis maps a wire value to a Basis. It accepts the named forms
// ("standard", "hadamard", "phase") case-insensitively as well as the
// numeric forms "0"/"1"/"2" used by older clients.
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "0", "":
		return BasisStandard, nil
	case "hadamard", "hadamard-like", "1":
		return BasisHadamard, nil
	case "phase", "phase-shift", "phaseshift", "2":
		return BasisPhaseShift, nil
	default:
		return 0, fmt.Errorf("%w: unknown measurement basis %q", ErrInvalidConfiguration, s)
	}
}
