package paillier

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"github.com/meshcrypt/core-go/pkg/pool"
)

var (
	ErrPrimeBadLength = errors.New("paillier: prime factor is not the right length")
	ErrNotBlum        = errors.New("paillier: prime factor is not equivalent to 3 (mod 4)")
	ErrNotSafePrime   = errors.New("paillier: supposed prime factor is not a safe prime")
	ErrPrimeNil       = errors.New("paillier: prime is nil")
)

// SecretKey is the secret key corresponding to a Paillier public key: the
// factorization of N, which is what decryption needs.
type SecretKey struct {
	*PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// phi = ϕ = (p-1)(q-1)
	phi *saferith.Nat
	// phiInv = ϕ⁻¹ mod N
	phiInv *saferith.Nat
}

// KeyGen generates a new key pair. The prime search runs on the pool; a nil
// pool searches on the calling goroutine.
func KeyGen(rand io.Reader, pl *pool.Pool) (*PublicKey, *SecretKey) {
	p, q := sample.Paillier(rand, pl)
	sk := NewSecretKeyFromPrimes(p, q)
	return sk.PublicKey, sk
}

// NewSecretKeyFromPrimes initializes a SecretKey from the two prime factors.
// P and Q are assumed prime; use ValidatePrime on untrusted factors.
func NewSecretKeyFromPrimes(P, Q *saferith.Nat) *SecretKey {
	oneNat := new(saferith.Nat).SetUint64(1)

	n := new(saferith.Nat).Mul(P, Q, -1)
	pk := NewPublicKey(n)

	pMinus1 := new(saferith.Nat).Sub(P, oneNat, -1)
	qMinus1 := new(saferith.Nat).Sub(Q, oneNat, -1)
	phi := new(saferith.Nat).Mul(pMinus1, qMinus1, -1)
	phiInv := new(saferith.Nat).ModInverse(phi, pk.n)

	return &SecretKey{
		PublicKey: pk,
		p:         P,
		q:         Q,
		phi:       phi,
		phiInv:    phiInv,
	}
}

// P returns the first prime factor.
func (sk *SecretKey) P() *saferith.Nat {
	return sk.p
}

// Q returns the second prime factor.
func (sk *SecretKey) Q() *saferith.Nat {
	return sk.q
}

// Phi returns ϕ(N) = (P-1)(Q-1).
func (sk *SecretKey) Phi() *saferith.Nat {
	return sk.phi
}

// Dec decrypts ct and returns the plaintext m ∈ ± (N-2)/2. It returns an
// error if the ciphertext is not a unit mod N².
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Int, error) {
	if !sk.ValidateCiphertexts(ct) {
		return nil, errors.New("paillier: failed to decrypt invalid ciphertext")
	}

	oneNat := new(saferith.Nat).SetUint64(1)

	// m = [(c^ϕ - 1 mod N²) / N] ⋅ ϕ⁻¹ (mod N)
	result := new(saferith.Nat).Exp(ct.c, sk.phi, sk.nSquared)
	result.Sub(result, oneNat, -1)
	result.Div(result, sk.n, -1)
	result.ModMul(result, sk.phiInv, sk.n)

	return new(saferith.Int).SetModSymmetric(result, sk.n), nil
}

// ValidatePrime checks whether p is a suitable factor for a key: the right
// bit length, 3 mod 4, and safe ((p-1)/2 also prime).
func ValidatePrime(p *saferith.Nat) error {
	if p == nil {
		return ErrPrimeNil
	}
	const bitsWant = params.BitsBlumPrime
	// Returning an error asserts the bit length statically anyway, so the
	// non-constant-time check leaks nothing new.
	if bits := p.TrueLen(); bits != bitsWant {
		return fmt.Errorf("invalid prime size: have %d, need %d: %w", bits, bitsWant, ErrPrimeBadLength)
	}
	if p.Byte(0)&0b11 != 3 {
		return ErrNotBlum
	}

	pMinus1Div2 := new(saferith.Nat).Rsh(p, 1, -1)
	if !pMinus1Div2.Big().ProbablyPrime(20) {
		return ErrNotSafePrime
	}
	return nil
}
