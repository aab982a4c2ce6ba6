// Package paillier implements Paillier homomorphic encryption over a Blum
// modulus.
//
// Wallets use it to aggregate encrypted balances: ciphertexts add, and a
// plaintext can scale a ciphertext, all without the secret key. The modulus
// factors are fresh safe primes generated probabilistically at the requested
// bit length; all exponentiations with secret operands run in constant time.
package paillier

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/pkg/math/sample"
)

// PublicKey is a Paillier public key: the modulus N plus cached values used
// by every operation.
type PublicKey struct {
	// n = p⋅q
	n *saferith.Modulus
	// nSquared = N²
	nSquared *saferith.Modulus
	nNat     *saferith.Nat
	// nPlusOne = N + 1, the plaintext base
	nPlusOne *saferith.Nat
}

// NewPublicKey initializes a public key from the modulus.
func NewPublicKey(n *saferith.Nat) *PublicKey {
	oneNat := new(saferith.Nat).SetUint64(1)
	nNat := new(saferith.Nat).SetNat(n)
	nSquared := new(saferith.Nat).Mul(nNat, nNat, -1)
	nPlusOne := new(saferith.Nat).Add(nNat, oneNat, -1)
	// Tightening is fine, since N is public.
	nPlusOne.Resize(nPlusOne.TrueLen())

	return &PublicKey{
		n:        saferith.ModulusFromNat(nNat),
		nSquared: saferith.ModulusFromNat(nSquared),
		nNat:     nNat,
		nPlusOne: nPlusOne,
	}
}

// N returns the modulus.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.n
}

// Equal returns true if pk = other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	_, eq, _ := pk.nNat.Cmp(other.nNat)
	return eq == 1
}

// Nonce returns a fresh encryption nonce ρ ∈ ℤₙˣ.
func (pk *PublicKey) Nonce(rand io.Reader) *saferith.Nat {
	return sample.UnitModN(rand, pk.n)
}

// Enc returns the encryption of m under pk, together with the nonce used:
//
//	ct = (1+N)ᵐ ρᴺ (mod N²)
//
// The plaintext must satisfy |m| ≤ (N-1)/2.
func (pk *PublicKey) Enc(rand io.Reader, m *saferith.Int) (*Ciphertext, *saferith.Nat) {
	nonce := pk.Nonce(rand)
	return pk.EncWithNonce(m, nonce), nonce
}

// EncWithNonce encrypts m with the given nonce. Use Enc unless the nonce
// must be known in advance, as in zero knowledge proofs about a ciphertext.
func (pk *PublicKey) EncWithNonce(m *saferith.Int, nonce *saferith.Nat) *Ciphertext {
	mAbs := m.Abs()
	c := new(saferith.Nat).Exp(pk.nPlusOne, mAbs, pk.nSquared)
	if m.IsNegative() == 1 {
		c.ModInverse(c, pk.nSquared)
	}
	rhoN := new(saferith.Nat).Exp(nonce, pk.nNat, pk.nSquared)
	c.ModMul(c, rhoN, pk.nSquared)
	return &Ciphertext{c: c}
}

// ValidateCiphertexts returns true if every ciphertext is a unit mod N²,
// which is exactly the set of decryptable values.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if ct.c.IsUnit(pk.nSquared) != 1 {
			return false
		}
	}
	return true
}

// BitLen returns the bit length of the modulus.
func (pk *PublicKey) BitLen() int {
	return pk.n.BitLen()
}
