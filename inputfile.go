// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// WriteInputFile stores the input snappy compressed at path.
func WriteInputFile(path string, in *ProgramInput) error {
	blob, err := EncodeProgramInput(in)
	if err != nil {
		return errors.Wrap(err, "could not encode program input")
	}
	if err := os.WriteFile(path, snappy.Encode(nil, blob), 0o644); err != nil {
		return errors.Wrapf(err, "could not write program input %s", path)
	}
	return nil
}

// ReadInputFile loads a snappy compressed input from path.
func ReadInputFile(path string) (*ProgramInput, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read program input %s", path)
	}
	blob, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decompress program input %s", path)
	}
	in, err := DecodeProgramInput(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode program input %s", path)
	}
	return in, nil
}
