package paillier

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/internal/params"
)

// Ciphertext is an element of ℤ_{N²}ˣ, the encryption of some plaintext
// under the key it was produced with.
type Ciphertext struct {
	c *saferith.Nat
}

// Add sets ct to the homomorphic sum ct ⊕ other:
//
//	ct = ct ⋅ other (mod N²)
//
// which encrypts the sum of the two plaintexts.
func (ct *Ciphertext) Add(pk *PublicKey, other *Ciphertext) *Ciphertext {
	if other == nil {
		return ct
	}
	ct.c.ModMul(ct.c, other.c, pk.nSquared)
	return ct
}

// Mul sets ct to the homomorphic scaling k ⊙ ct:
//
//	ct = ctᵏ (mod N²)
//
// which encrypts k times the plaintext.
func (ct *Ciphertext) Mul(pk *PublicKey, k *saferith.Int) *Ciphertext {
	if k == nil {
		return ct
	}
	ct.c.Exp(ct.c, k.Abs(), pk.nSquared)
	if k.IsNegative() == 1 {
		ct.c.ModInverse(ct.c, pk.nSquared)
	}
	return ct
}

// Randomize re-blinds the ciphertext with a fresh nonce, returning the
// nonce. The plaintext is unchanged.
func (ct *Ciphertext) Randomize(rand io.Reader, pk *PublicKey) *saferith.Nat {
	nonce := pk.Nonce(rand)
	rhoN := new(saferith.Nat).Exp(nonce, pk.nNat, pk.nSquared)
	ct.c.ModMul(ct.c, rhoN, pk.nSquared)
	return nonce
}

// Equal returns true if both ciphertexts are the same element.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	if ct == nil || other == nil {
		return ct == other
	}
	_, eq, _ := ct.c.Cmp(other.c)
	return eq == 1
}

// Clone returns a deep copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
}

// Bytes returns the fixed-width big-endian encoding of the ciphertext.
func (ct *Ciphertext) Bytes() []byte {
	buf := make([]byte, params.BytesCiphertext)
	ct.c.FillBytes(buf)
	return buf
}

// SetBytes decodes a ciphertext produced by Bytes. Validity with respect to
// a particular key is checked at decryption time.
func (ct *Ciphertext) SetBytes(data []byte) *Ciphertext {
	ct.c = new(saferith.Nat).SetBytes(data)
	return ct
}

// WriteTo implements io.WriterTo and is used within the transcript hash.
func (ct *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(ct.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Ciphertext) Domain() string {
	return "Paillier Ciphertext"
}
