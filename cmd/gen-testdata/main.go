// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata writes a synthetic UCD-format property file covering every
// code point, for the large table tests and benchmarks:
//
//	go run ./cmd/gen-testdata > testdata.large
package main

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
)

const (
	maxCodePoint = 0x10FFFF
	nValues      = 43
	maxRunLen    = 64
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	_, _ = crand.Read(seedBytes[:])
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func main() {
	rng := newRand()
	w := bufio.NewWriter(os.Stdout)

	fmt.Fprintf(w, "# synthetic property data, %d values\n", nValues)
	for lo := 0; lo <= maxCodePoint; {
		hi := min(lo+rng.Intn(maxRunLen), maxCodePoint)
		value := fmt.Sprintf("V%02d", rng.Intn(nValues))
		if lo == hi {
			fmt.Fprintf(w, "%04X;%s\n", lo, value)
		} else {
			fmt.Fprintf(w, "%04X..%04X;%s\n", lo, hi, value)
		}
		lo = hi + 1
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "write: %s\n", err)
		os.Exit(1)
	}
}
