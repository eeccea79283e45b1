// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import "fmt"

// Fork is an enum with the consensus hard forks whose beacon state schema the
// prover understands.
//
// The numeric values are part of the program input encoding, so new forks may
// only be appended.
type Fork uint64

const (
	ForkUnknown Fork = iota // Placeholder if forks haven't been specified (must be index 0)

	ForkDeneb   // https://ethereum.org/en/history/#dencun
	ForkElectra // https://ethereum.org/en/history/#pectra

	ForkFuture // Use this for specifying future features (must be last index, no gaps)
)

// ForkMapping maps the fork names used by beacon node APIs (the
// Eth-Consensus-Version header) to fork values.
var ForkMapping = map[string]Fork{
	"deneb":   ForkDeneb,
	"electra": ForkElectra,
}

// String implements fmt.Stringer.
func (f Fork) String() string {
	for name, fork := range ForkMapping {
		if fork == f {
			return name
		}
	}
	return fmt.Sprintf("fork(%d)", uint64(f))
}

// ParseFork converts a beacon node fork name into a fork value.
func ParseFork(name string) (Fork, error) {
	if fork, ok := ForkMapping[name]; ok {
		return fork, nil
	}
	return ForkUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFork, name)
}
