package curve

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/meshcrypt/core-go/internal/params"
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Scalar) MarshalBinary() ([]byte, error) {
	data := make([]byte, params.BytesScalar)
	s.s.PutBytesUnchecked(data)
	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	var scalar secp256k1.ModNScalar
	if len(data) != params.BytesScalar {
		return errors.New("curve.Scalar.UnmarshalBinary: wrong length")
	}
	if scalar.SetByteSlice(data) {
		return errors.New("curve.Scalar.UnmarshalBinary: scalar was >= q")
	}
	s.s.Set(&scalar)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// The encoding is the 33-byte SEC1 compressed form. The identity cannot
// be marshaled; wire formats never carry it.
func (v *Point) MarshalBinary() ([]byte, error) {
	if v == nil {
		return nil, errors.New("curve.Point.MarshalBinary: point is nil")
	}
	if v.IsIdentity() {
		return nil, errors.New("curve.Point.MarshalBinary: tried to marshal identity")
	}
	v.toAffine()

	data := make([]byte, params.BytesPoint)
	format := byte(secp256k1.PubKeyFormatCompressedEven)
	if v.p.Y.IsOdd() {
		format = secp256k1.PubKeyFormatCompressedOdd
	}

	// 0x02 or 0x03 ∥ 32-byte x coordinate
	data[0] = format
	v.p.X.PutBytesUnchecked(data[1:33])
	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It rejects byte
// strings that do not decode to a point on the curve.
func (v *Point) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesPoint {
		return errors.New("curve.Point.UnmarshalBinary: wrong length")
	}
	format := data[0]
	if format != secp256k1.PubKeyFormatCompressedOdd && format != secp256k1.PubKeyFormatCompressedEven {
		return errors.New("curve.Point.UnmarshalBinary: incorrect format")
	}

	var x, y secp256k1.FieldVal
	if overflow := x.SetByteSlice(data[1:33]); overflow {
		return errors.New("curve.Point.UnmarshalBinary: invalid point: x >= field prime")
	}

	// Solve for the y coordinate with the requested oddness, which also
	// proves the x coordinate is on the curve.
	wantOddY := format == secp256k1.PubKeyFormatCompressedOdd
	if !secp256k1.DecompressY(&x, wantOddY, &y) {
		return fmt.Errorf("curve.Point.UnmarshalBinary: invalid point: x coordinate %v is not on the secp256k1 curve", x)
	}
	y.Normalize()
	v.p.X.Set(&x)
	v.p.Y.Set(&y)
	v.p.Z.SetInt(1)
	return nil
}

// String implements fmt.Stringer.
func (v *Point) String() string {
	if v == nil {
		return "nil"
	}
	if v.IsIdentity() {
		return "Point{Identity}"
	}
	return fmt.Sprintf("Point{X: %v, Y: %v}", v.p.X, v.p.Y)
}

// String implements fmt.Stringer.
func (s *Scalar) String() string {
	if s == nil {
		return "nil"
	}
	return s.s.String()
}
