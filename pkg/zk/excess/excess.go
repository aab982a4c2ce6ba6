// Package excess implements the Schnorr-style balance proof of a
// confidential transaction.
//
// The sum of input commitments minus output commitments minus the fee
// commitment leaves a point E = excess·G, where the excess is the difference
// of the blinding factors. Proving knowledge of that discrete log shows the
// amounts balance without revealing any of them. The challenge is derived
// from a transcript carrying the transaction's public data, so a proof for
// one transaction cannot be replayed against another.
package excess

import (
	"io"

	"github.com/meshcrypt/core-go/internal/hash"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
)

// Proof is a Schnorr proof of knowledge of the excess scalar behind E.
type Proof struct {
	// R = k·G for the prover's nonce k.
	R *curve.Point
	// S = k + e·excess.
	S *curve.Scalar
}

func challenge(h *hash.Hash, R, E *curve.Point) *curve.Scalar {
	_ = h.WriteAny(R, E)
	return sample.Scalar(h.Digest())
}

// Prove returns a proof of knowledge of excess for E = excess·G, bound to
// the transcript state of h. The nonce is wiped before returning.
func Prove(h *hash.Hash, rand io.Reader, excess *curve.Scalar) *Proof {
	k := sample.Scalar(rand)
	defer k.Zero()

	R := k.ActOnBase()
	e := challenge(h, R, excess.ActOnBase())

	s := curve.NewScalar().MultiplyAdd(e, excess, k)
	return &Proof{R: R, S: s}
}

// Verify checks the proof against E, using a transcript in the same state
// the prover started from.
func (p *Proof) Verify(h *hash.Hash, E *curve.Point) bool {
	if p == nil || p.R == nil || p.S == nil || E == nil {
		return false
	}
	if p.R.IsIdentity() || E.IsIdentity() || p.S.IsZero() {
		return false
	}

	e := challenge(h, p.R, E)

	lhs := p.S.ActOnBase()
	rhs := e.Act(E)
	rhs.Add(rhs, p.R)
	return lhs.Equal(rhs)
}
