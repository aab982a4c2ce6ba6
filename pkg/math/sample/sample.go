package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/curve"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// Scalar returns a new nonzero *curve.Scalar, by reading bytes from rand and
// rejecting candidates outside the group order. rand may be a cryptographic
// RNG, or a transcript digest when deriving Fiat–Shamir challenges.
func Scalar(rand io.Reader) *curve.Scalar {
	var s curve.Scalar
	buf := make([]byte, params.BytesScalar)
	for i := 0; i < maxIterations; i++ {
		mustReadBits(rand, buf)
		if err := s.UnmarshalBinary(buf); err != nil {
			continue
		}
		if s.IsZero() {
			continue
		}
		return &s
	}
	panic(ErrMaxIterations)
}

// ScalarPointPair returns a new key pair (x, x·G).
func ScalarPointPair(rand io.Reader) (*curve.Scalar, *curve.Point) {
	x := Scalar(rand)
	return x, x.ActOnBase()
}

// ModN samples an element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for {
		mustReadBits(rand, buf)
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			return out
		}
	}
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	for i := 0; i < maxIterations; i++ {
		u := ModN(rand, n)
		if u.IsUnit(n) == 1 {
			return u
		}
	}
	panic(ErrMaxIterations)
}
