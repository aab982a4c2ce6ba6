// Package rangeproof implements a Bulletproofs-style non-interactive zero
// knowledge proof that a Pedersen-committed value lies in [0, 2^n - 1].
//
// The proof commits to the bit decomposition of the value, reduces the range
// statement to a single inner product, and then compresses that inner product
// with a logarithmic number of folding rounds. All challenges are derived
// from a transcript hash, so prover and verifier never interact.
//
// Proof size grows with ⌈log2(n)⌉, not with n.
package rangeproof

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/meshcrypt/core-go/internal/hash"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"github.com/meshcrypt/core-go/pkg/pedersen"
	"github.com/meshcrypt/core-go/pkg/pool"
)

// MaxBits is the largest supported range bit length.
const MaxBits = 64

var (
	// ErrOutOfRange is returned when the value does not fit in the
	// requested bit length.
	ErrOutOfRange = errors.New("rangeproof: value out of range")
	// ErrInvalidBitLength is returned when the bit length is not a power
	// of two in [2, 64]. A 1-bit range has no folding rounds and therefore
	// no inner-product argument to compress.
	ErrInvalidBitLength = errors.New("rangeproof: bit length must be a power of two in [2, 64]")
)

// Proof is a range proof for the Pedersen commitment V.
//
// A and S commit to the bit decomposition and its blinding vectors, T1 and
// T2 to the coefficients of the reduction polynomial t(X). TauX, Mu and THat
// open the polynomial evaluation, and IP compresses the remaining inner
// product into ⌈log2(n)⌉ (L, R) pairs.
type Proof struct {
	V, A, S, T1, T2 *curve.Point
	TauX, Mu, THat  *curve.Scalar
	IP              InnerProductProof
}

// Rounds returns the number of folding rounds, ⌈log2(bits)⌉.
func (p *Proof) Rounds() int {
	return len(p.IP.L)
}

// Bits returns the bit length the proof covers.
func (p *Proof) Bits() int {
	return 1 << len(p.IP.L)
}

// vector generators for the bit commitments, shared by prover and verifier.
var (
	genOnce sync.Once
	genG    []*curve.Point
	genH    []*curve.Point
)

func generators() (g, h []*curve.Point) {
	genOnce.Do(func() {
		genG = make([]*curve.Point, MaxBits)
		genH = make([]*curve.Point, MaxBits)
		for i := 0; i < MaxBits; i++ {
			genG[i] = pedersen.DeriveGenerator(fmt.Sprintf("meshcrypt/rangeproof/G/%d", i))
			genH[i] = pedersen.DeriveGenerator(fmt.Sprintf("meshcrypt/rangeproof/H/%d", i))
		}
	})
	return genG, genH
}

func validBits(bits int) bool {
	return bits > 1 && bits <= MaxBits && bits&(bits-1) == 0
}

// newTranscript starts the Fiat–Shamir transcript, binding the value
// commitment and the claimed bit length.
func newTranscript(V *curve.Point, bits int) *hash.Hash {
	h := hash.New("meshcrypt/rangeproof")
	_ = h.WriteAny(V, uint64(bits))
	return h
}

// challengeScalar writes a labeled marker into the transcript and derives a
// scalar from the resulting state. The marker keeps distinct challenges from
// colliding even when no new data was written between them.
func challengeScalar(h *hash.Hash, label string) *curve.Scalar {
	_ = h.WriteAny(hash.BytesWithDomain{TheDomain: "challenge", Bytes: []byte(label)})
	return sample.Scalar(h.Clone().Digest())
}

// Prove generates a range proof that value ∈ [0, 2^bits - 1], for the
// commitment V = value·H + blinding·G.
func Prove(rand io.Reader, value uint64, blinding *curve.Scalar, bits int) (*Proof, error) {
	if !validBits(bits) {
		return nil, ErrInvalidBitLength
	}
	if bits < MaxBits && value>>uint(bits) != 0 {
		return nil, ErrOutOfRange
	}

	n := bits
	gVec, hVec := generators()
	gVec, hVec = gVec[:n], hVec[:n]
	H := pedersen.GeneratorH()

	commitment, err := pedersen.Commit(new(big.Int).SetUint64(value), blinding)
	if err != nil {
		return nil, err
	}
	V := commitment.Point()

	// aL is the bit vector of the value, aR = aL - 1 componentwise. The
	// range statement holds exactly when aL ∘ aR = 0 and <aL, 2^n> = value.
	one := curve.NewScalarUInt64(1)
	aL := make([]*curve.Scalar, n)
	aR := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		aL[i] = curve.NewScalarUInt64((value >> uint(i)) & 1)
		aR[i] = curve.NewScalar().Subtract(aL[i], one)
	}
	defer zeroVector(aL)
	defer zeroVector(aR)

	alpha := sample.Scalar(rand)
	defer alpha.Zero()
	A := multiScalarMult(aL, gVec)
	A.Add(A, multiScalarMult(aR, hVec))
	A.Add(A, alpha.ActOnBase())

	rho := sample.Scalar(rand)
	defer rho.Zero()
	sL := make([]*curve.Scalar, n)
	sR := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		sL[i] = sample.Scalar(rand)
		sR[i] = sample.Scalar(rand)
	}
	defer zeroVector(sL)
	defer zeroVector(sR)
	S := multiScalarMult(sL, gVec)
	S.Add(S, multiScalarMult(sR, hVec))
	S.Add(S, rho.ActOnBase())

	h := newTranscript(V, bits)
	_ = h.WriteAny(A, S)
	y := challengeScalar(h, "y")
	z := challengeScalar(h, "z")

	// l(X) = (aL - z·1) + sL·X
	// r(X) = y^n ∘ (aR + z·1 + sR·X) + z²·2^n
	// t(X) = <l(X), r(X)> = t0 + t1·X + t2·X²
	zz := curve.NewScalar().Square(z)
	yPow := powers(y, n)
	twoPow := powers(curve.NewScalarUInt64(2), n)
	l0 := make([]*curve.Scalar, n)
	r0 := make([]*curve.Scalar, n)
	r1 := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		l0[i] = curve.NewScalar().Subtract(aL[i], z)
		r0[i] = curve.NewScalar().Add(aR[i], z)
		r0[i].Multiply(yPow[i], r0[i])
		r0[i].MultiplyAdd(zz, twoPow[i], r0[i])
		r1[i] = curve.NewScalar().Multiply(yPow[i], sR[i])
	}
	l1 := sL
	defer zeroVector(l0)
	defer zeroVector(r0)
	defer zeroVector(r1)

	t1 := curve.NewScalar().Add(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)
	defer t1.Zero()
	defer t2.Zero()

	tau1 := sample.Scalar(rand)
	tau2 := sample.Scalar(rand)
	defer tau1.Zero()
	defer tau2.Zero()
	T1 := t1.Act(H)
	T1.Add(T1, tau1.ActOnBase())
	T2 := t2.Act(H)
	T2.Add(T2, tau2.ActOnBase())

	_ = h.WriteAny(T1, T2)
	x := challengeScalar(h, "x")
	xx := curve.NewScalar().Square(x)

	l := make([]*curve.Scalar, n)
	r := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		l[i] = curve.NewScalar().MultiplyAdd(l1[i], x, l0[i])
		r[i] = curve.NewScalar().MultiplyAdd(r1[i], x, r0[i])
	}
	defer zeroVector(l)
	defer zeroVector(r)
	tHat := innerProduct(l, r)

	// taux = tau2·x² + tau1·x + z²·blinding
	taux := curve.NewScalar().Multiply(tau2, xx)
	taux.MultiplyAdd(tau1, x, taux)
	taux.MultiplyAdd(zz, blinding, taux)
	// mu = alpha + rho·x
	mu := curve.NewScalar().MultiplyAdd(rho, x, alpha)

	// The inner-product base U is bound to the transcript after all the
	// scalar openings, so it cannot be chosen adversarially.
	_ = h.WriteAny(taux, mu, tHat)
	w := challengeScalar(h, "w")
	U := w.Act(H)

	// h'_i = y^{-i}·h_i moves the y powers out of r and into the bases.
	hPrime := make([]*curve.Point, n)
	yInvPow := powers(curve.NewScalar().Invert(y), n)
	for i := 0; i < n; i++ {
		hPrime[i] = yInvPow[i].Act(hVec[i])
	}

	ip := proveInnerProduct(h, l, r, U, clonePoints(gVec), hPrime)

	return &Proof{
		V: V, A: A, S: S, T1: T1, T2: T2,
		TauX: taux, Mu: mu, THat: tHat,
		IP: ip,
	}, nil
}

// Verify checks the proof against its embedded value commitment, returning
// false on any mismatch. An invalid proof is an ordinary outcome, never an
// error.
func (p *Proof) Verify() bool {
	if p == nil || !p.wellFormed() {
		return false
	}
	n := p.Bits()
	if !validBits(n) {
		return false
	}
	gVec, hVec := generators()
	gVec, hVec = gVec[:n], hVec[:n]
	H := pedersen.GeneratorH()

	h := newTranscript(p.V, n)
	_ = h.WriteAny(p.A, p.S)
	y := challengeScalar(h, "y")
	z := challengeScalar(h, "z")
	_ = h.WriteAny(p.T1, p.T2)
	x := challengeScalar(h, "x")
	_ = h.WriteAny(p.TauX, p.Mu, p.THat)
	w := challengeScalar(h, "w")
	U := w.Act(H)

	zz := curve.NewScalar().Square(z)
	xx := curve.NewScalar().Square(x)
	yPow := powers(y, n)
	twoPow := powers(curve.NewScalarUInt64(2), n)

	// Polynomial check:
	// tHat·H + taux·G == z²·V + δ(y,z)·H + x·T1 + x²·T2
	lhs := p.THat.Act(H)
	lhs.Add(lhs, p.TauX.ActOnBase())
	rhs := zz.Act(p.V)
	rhs.Add(rhs, delta(yPow, twoPow, z).Act(H))
	rhs.Add(rhs, x.Act(p.T1))
	rhs.Add(rhs, xx.Act(p.T2))
	if !lhs.Equal(rhs) {
		return false
	}

	hPrime := make([]*curve.Point, n)
	yInvPow := powers(curve.NewScalar().Invert(y), n)
	for i := 0; i < n; i++ {
		hPrime[i] = yInvPow[i].Act(hVec[i])
	}

	// Reconstruct P = A + x·S - z·Σg_i + Σ(z·y^i + z²·2^i)·h'_i, then shift
	// to P' = P - mu·G + tHat·U, the statement the inner product argument
	// actually proves.
	negZ := curve.NewScalar().Negate(z)
	P := curve.NewIdentityPoint().Add(p.A, x.Act(p.S))
	for i := 0; i < n; i++ {
		P.Add(P, negZ.Act(gVec[i]))
		c := curve.NewScalar().Multiply(z, yPow[i])
		c.MultiplyAdd(zz, twoPow[i], c)
		P.Add(P, c.Act(hPrime[i]))
	}
	P.Subtract(P, p.Mu.ActOnBase())
	P.Add(P, p.THat.Act(U))

	return verifyInnerProduct(h, P, U, clonePoints(gVec), hPrime, &p.IP)
}

// VerifyBatch verifies many proofs, spreading the work over the pool. The
// result equals verifying each proof individually.
func VerifyBatch(pl *pool.Pool, proofs []*Proof) bool {
	results := pl.Parallelize(len(proofs), func(i int) interface{} {
		return proofs[i].Verify()
	})
	for _, ok := range results {
		if !ok.(bool) {
			return false
		}
	}
	return true
}

func (p *Proof) wellFormed() bool {
	if p.V == nil || p.A == nil || p.S == nil || p.T1 == nil || p.T2 == nil {
		return false
	}
	if p.TauX == nil || p.Mu == nil || p.THat == nil {
		return false
	}
	if p.IP.A == nil || p.IP.B == nil || len(p.IP.L) != len(p.IP.R) || len(p.IP.L) == 0 {
		return false
	}
	for i := range p.IP.L {
		if p.IP.L[i] == nil || p.IP.R[i] == nil {
			return false
		}
	}
	return true
}

// delta computes δ(y,z) = (z - z²)·<1, y^n> - z³·<1, 2^n>.
func delta(yPow, twoPow []*curve.Scalar, z *curve.Scalar) *curve.Scalar {
	zz := curve.NewScalar().Square(z)
	zzz := curve.NewScalar().Multiply(zz, z)

	sumY := curve.NewScalar()
	sum2 := curve.NewScalar()
	for i := range yPow {
		sumY.Add(sumY, yPow[i])
		sum2.Add(sum2, twoPow[i])
	}

	out := curve.NewScalar().Subtract(z, zz)
	out.Multiply(out, sumY)
	out.Subtract(out, zzz.Multiply(zzz, sum2))
	return out
}
