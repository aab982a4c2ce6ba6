package rangeproof

import (
	"errors"

	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/curve"
)

// fixedLen is the size of the proof without the (L, R) arrays: five
// compressed points followed by five scalars.
const fixedLen = 5*params.BytesPoint + 5*params.BytesScalar

// roundLen is the size contributed by one folding round.
const roundLen = 2 * params.BytesPoint

var errMalformedProof = errors.New("rangeproof: malformed proof bytes")

// Size returns the serialized proof size in bytes for the given bit length.
func Size(bits int) int {
	rounds := 0
	for 1<<rounds < bits {
		rounds++
	}
	return fixedLen + rounds*roundLen
}

// Bytes serializes the proof as
//
//	V ∥ A ∥ S ∥ T1 ∥ T2 ∥ taux ∥ mu ∥ tHat ∥ a ∥ b ∥ L[0..k) ∥ R[0..k)
//
// with compressed points and 32-byte scalars. Prover and verifier both hash
// this exact layout, so it must never change shape.
func (p *Proof) Bytes() ([]byte, error) {
	out := make([]byte, 0, fixedLen+len(p.IP.L)*roundLen)
	for _, pt := range []*curve.Point{p.V, p.A, p.S, p.T1, p.T2} {
		data, err := pt.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	for _, s := range []*curve.Scalar{p.TauX, p.Mu, p.THat, p.IP.A, p.IP.B} {
		data, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	for _, pt := range p.IP.L {
		data, err := pt.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	for _, pt := range p.IP.R {
		data, err := pt.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// FromBytes deserializes a proof produced by Bytes. The number of folding
// rounds is recovered from the total length.
func FromBytes(data []byte) (*Proof, error) {
	if len(data) < fixedLen || (len(data)-fixedLen)%roundLen != 0 {
		return nil, errMalformedProof
	}
	rounds := (len(data) - fixedLen) / roundLen
	if rounds == 0 || rounds > 6 {
		return nil, errMalformedProof
	}

	p := &Proof{
		V: curve.NewIdentityPoint(), A: curve.NewIdentityPoint(),
		S: curve.NewIdentityPoint(), T1: curve.NewIdentityPoint(), T2: curve.NewIdentityPoint(),
		TauX: curve.NewScalar(), Mu: curve.NewScalar(), THat: curve.NewScalar(),
		IP: InnerProductProof{
			L: make([]*curve.Point, rounds),
			R: make([]*curve.Point, rounds),
			A: curve.NewScalar(), B: curve.NewScalar(),
		},
	}

	off := 0
	next := func(n int) []byte {
		chunk := data[off : off+n]
		off += n
		return chunk
	}

	for _, pt := range []*curve.Point{p.V, p.A, p.S, p.T1, p.T2} {
		if err := pt.UnmarshalBinary(next(params.BytesPoint)); err != nil {
			return nil, err
		}
	}
	for _, s := range []*curve.Scalar{p.TauX, p.Mu, p.THat, p.IP.A, p.IP.B} {
		if err := s.UnmarshalBinary(next(params.BytesScalar)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < rounds; i++ {
		p.IP.L[i] = curve.NewIdentityPoint()
		if err := p.IP.L[i].UnmarshalBinary(next(params.BytesPoint)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < rounds; i++ {
		p.IP.R[i] = curve.NewIdentityPoint()
		if err := p.IP.R[i].UnmarshalBinary(next(params.BytesPoint)); err != nil {
			return nil, err
		}
	}
	return p, nil
}
