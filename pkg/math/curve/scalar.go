package curve

import (
	"encoding/binary"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/meshcrypt/core-go/internal/params"
)

// Scalar is an element of the scalar field of secp256k1, reduced mod the
// group order. The zero value is a valid zero scalar.
//
// Secret scalars (blinding factors, private keys) should be wiped with Zero
// as soon as they are no longer needed.
type Scalar struct {
	s secp256k1.ModNScalar
}

// NewScalar returns a new zero Scalar.
func NewScalar() *Scalar {
	return &Scalar{}
}

// NewScalarUInt64 returns a new Scalar set to v.
func NewScalarUInt64(v uint64) *Scalar {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	var s Scalar
	s.s.SetByteSlice(buf[:])
	return &s
}

// Add sets s = x + y mod q, and returns s.
func (s *Scalar) Add(x, y *Scalar) *Scalar {
	s.s.Add2(&x.s, &y.s)
	return s
}

// Subtract sets s = x - y mod q, and returns s.
func (s *Scalar) Subtract(x, y *Scalar) *Scalar {
	var yNeg secp256k1.ModNScalar
	yNeg.NegateVal(&y.s)
	s.s.Add2(&x.s, &yNeg)
	return s
}

// Negate sets s = -x mod q, and returns s.
func (s *Scalar) Negate(x *Scalar) *Scalar {
	s.s.NegateVal(&x.s)
	return s
}

// Multiply sets s = x * y mod q, and returns s.
func (s *Scalar) Multiply(x, y *Scalar) *Scalar {
	s.s.Mul2(&x.s, &y.s)
	return s
}

// MultiplyAdd sets s = x * y + z mod q, and returns s.
func (s *Scalar) MultiplyAdd(x, y, z *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Mul2(&x.s, &y.s)
	s.s.Add2(&r, &z.s)
	return s
}

// Square sets s = x² mod q, and returns s.
func (s *Scalar) Square(x *Scalar) *Scalar {
	s.s.SquareVal(&x.s)
	return s
}

// Invert sets s to the multiplicative inverse of the nonzero scalar x, and
// returns s. If x is zero, the result is zero.
func (s *Scalar) Invert(x *Scalar) *Scalar {
	s.s.InverseValNonConst(&x.s)
	return s
}

// Set sets s = x, and returns s.
func (s *Scalar) Set(x *Scalar) *Scalar {
	s.s.Set(&x.s)
	return s
}

// SetHash converts a hash digest to a Scalar. The digest is truncated to the
// byte length of the group order and reduced mod q, mirroring how crypto/ecdsa
// converts digests per [SECG].
func (s *Scalar) SetHash(digest []byte) *Scalar {
	if len(digest) > params.BytesScalar {
		digest = digest[:params.BytesScalar]
	}
	s.s.SetByteSlice(digest)
	return s
}

// Bytes returns the canonical 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.s.Bytes()
	return b[:]
}

// Equal returns true if s and t are equal.
func (s *Scalar) Equal(t *Scalar) bool {
	return s.s.Equals(&t.s)
}

// IsZero returns true if s is zero.
func (s *Scalar) IsZero() bool {
	return s.s.IsZero()
}

// Zero wipes the scalar, setting it to 0. Use this to dispose of secret
// material as soon as it is no longer needed.
func (s *Scalar) Zero() {
	s.s.Zero()
}

// Act sets v to the point x * q.
func (s *Scalar) Act(q *Point) *Point {
	var v Point
	return v.ScalarMult(s, q)
}

// ActOnBase returns the point s * G, where G is the canonical generator.
func (s *Scalar) ActOnBase() *Point {
	var v Point
	return v.ScalarBaseMult(s)
}

// WriteTo implements io.WriterTo and is used within the transcript hash.
func (s *Scalar) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (s *Scalar) Domain() string {
	return "Scalar"
}
