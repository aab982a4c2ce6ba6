// Package pedersen implements Pedersen commitments over secp256k1.
//
// A commitment to v with blinding r is the point C = v·H + r·G, where G is
// the canonical generator and H is a second generator derived by hashing, so
// that nobody knows the discrete log of H with respect to G. Commitments are
// hiding, binding, and additively homomorphic, which is what lets a
// transaction prove balance without revealing amounts.
package pedersen

import (
	"errors"
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidValue is returned when a value to commit is negative or not
// below the group order.
var ErrInvalidValue = errors.New("pedersen: value out of domain")

// generatorH is the second generator H, derived in init by hashing the
// canonical generator. Treated as read-only after init.
var generatorH *curve.Point

// GeneratorH returns a copy of the second generator H.
func GeneratorH() *curve.Point {
	return curve.NewIdentityPoint().Set(generatorH)
}

// Commitment is a Pedersen commitment C = v·H + r·G. Only the point is ever
// published; the opening (v, r) stays with the owner.
type Commitment struct {
	p curve.Point
}

// Commit commits to value with the given blinding factor.
func Commit(value *big.Int, blinding *curve.Scalar) (*Commitment, error) {
	v, err := valueScalar(value)
	if err != nil {
		return nil, err
	}
	defer v.Zero()
	c := &Commitment{}
	c.p.Add(v.Act(generatorH), blinding.ActOnBase())
	return c, nil
}

// CommitRandom commits to value with a fresh blinding factor drawn from rand,
// returning both. The caller owns the blinding factor and must zero it once
// it is no longer needed.
func CommitRandom(rand io.Reader, value *big.Int) (*Commitment, *curve.Scalar, error) {
	blinding := sample.Scalar(rand)
	c, err := Commit(value, blinding)
	if err != nil {
		blinding.Zero()
		return nil, nil, err
	}
	return c, blinding, nil
}

// Verify returns true if the commitment opens to (value, blinding).
// It is a pure recomputation; no randomness is involved.
func (c *Commitment) Verify(value *big.Int, blinding *curve.Scalar) bool {
	expected, err := Commit(value, blinding)
	if err != nil {
		return false
	}
	return c.p.Equal(&expected.p)
}

// Add returns the group sum c1 + c2, which commits to the sums of the
// underlying values and blinding factors.
func Add(c1, c2 *Commitment) *Commitment {
	out := &Commitment{}
	out.p.Add(&c1.p, &c2.p)
	return out
}

// Sub returns c1 - c2.
func Sub(c1, c2 *Commitment) *Commitment {
	out := &Commitment{}
	out.p.Subtract(&c1.p, &c2.p)
	return out
}

// Point returns the underlying curve point.
func (c *Commitment) Point() *curve.Point {
	return &c.p
}

// Equal returns true if both commitments are the same group element.
func (c *Commitment) Equal(other *Commitment) bool {
	return c.p.Equal(&other.p)
}

// MarshalBinary implements encoding.BinaryMarshaler using the 33-byte
// compressed point encoding.
func (c *Commitment) MarshalBinary() ([]byte, error) {
	return c.p.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *Commitment) UnmarshalBinary(data []byte) error {
	return c.p.UnmarshalBinary(data)
}

// WriteTo implements io.WriterTo and is used within the transcript hash.
func (c *Commitment) WriteTo(w io.Writer) (int64, error) {
	return c.p.WriteTo(w)
}

// Domain implements hash.WriterToWithDomain.
func (c *Commitment) Domain() string {
	return "Pedersen Commitment"
}

// valueScalar converts a committed value to a scalar, enforcing the scheme's
// domain: 0 <= value < q.
func valueScalar(value *big.Int) (*curve.Scalar, error) {
	if value == nil || value.Sign() < 0 || value.Cmp(secp256k1.S256().N) >= 0 {
		return nil, ErrInvalidValue
	}
	var buf [params.BytesScalar]byte
	value.FillBytes(buf[:])
	s := curve.NewScalar()
	if err := s.UnmarshalBinary(buf[:]); err != nil {
		return nil, ErrInvalidValue
	}
	return s, nil
}

// DeriveGenerator derives an independent generator bound to label by hashing
// the label together with the compressed encoding of G, and interpreting the
// digest as an x coordinate, incrementing until a curve point is found. The
// construction leaves the discrete log of the result unknown to everyone.
//
// The same label always yields the same point, so prover and verifier agree
// on generators without any setup ceremony.
func DeriveGenerator(label string) *curve.Point {
	h := sha3.NewLegacyKeccak256()
	base, err := curve.NewBasePoint().MarshalBinary()
	if err != nil {
		panic(err)
	}
	_, _ = h.Write([]byte(label))
	_, _ = h.Write(base)
	seed := h.Sum(nil)

	candidate := make([]byte, params.BytesPoint)
	candidate[0] = byte(secp256k1.PubKeyFormatCompressedEven)
	for counter := byte(0); ; counter++ {
		h.Reset()
		_, _ = h.Write(seed)
		_, _ = h.Write([]byte{counter})
		copy(candidate[1:], h.Sum(nil))

		p := curve.NewIdentityPoint()
		if err := p.UnmarshalBinary(candidate); err == nil {
			return p
		}
	}
}

func init() {
	generatorH = DeriveGenerator("meshcrypt/pedersen/H")
}
