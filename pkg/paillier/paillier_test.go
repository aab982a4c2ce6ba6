package paillier

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Small safe Blum primes keep the unit tests fast; real keys come from
// KeyGen at the full bit length.
func testKey() (*PublicKey, *SecretKey) {
	p := new(saferith.Nat).SetUint64(23)
	q := new(saferith.Nat).SetUint64(59)
	sk := NewSecretKeyFromPrimes(p, q)
	return sk.PublicKey, sk
}

func intFromInt64(v int64) *saferith.Int {
	neg := v < 0
	if neg {
		v = -v
	}
	out := new(saferith.Int).SetNat(new(saferith.Nat).SetUint64(uint64(v)))
	if neg {
		out.Neg(1)
	}
	return out
}

func intEqual(a, b *saferith.Int) bool {
	return a.Abs().Eq(b.Abs()) == 1 && a.IsNegative() == b.IsNegative()
}

func TestEncDecRoundTrip(t *testing.T) {
	pk, sk := testKey()
	for _, v := range []int64{0, 1, 2, 100, 500, -1, -100, -500} {
		m := intFromInt64(v)
		ct, _ := pk.Enc(rand.Reader, m)
		require.True(t, pk.ValidateCiphertexts(ct))

		got, err := sk.Dec(ct)
		require.NoError(t, err)
		assert.True(t, intEqual(m, got), "decryption mismatch for %d", v)
	}
}

func TestHomomorphicAdd(t *testing.T) {
	pk, sk := testKey()
	ct1, _ := pk.Enc(rand.Reader, intFromInt64(100))
	ct2, _ := pk.Enc(rand.Reader, intFromInt64(250))

	sum := ct1.Clone().Add(pk, ct2)
	got, err := sk.Dec(sum)
	require.NoError(t, err)
	assert.True(t, intEqual(intFromInt64(350), got))
}

func TestHomomorphicMul(t *testing.T) {
	pk, sk := testKey()
	ct, _ := pk.Enc(rand.Reader, intFromInt64(7))

	scaled := ct.Clone().Mul(pk, intFromInt64(3))
	got, err := sk.Dec(scaled)
	require.NoError(t, err)
	assert.True(t, intEqual(intFromInt64(21), got))
}

func TestRandomizePreservesPlaintext(t *testing.T) {
	pk, sk := testKey()
	ct, _ := pk.Enc(rand.Reader, intFromInt64(42))
	original := ct.Clone()

	ct.Randomize(rand.Reader, pk)
	assert.False(t, ct.Equal(original), "re-blinding must change the ciphertext")

	got, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.True(t, intEqual(intFromInt64(42), got))
}

func TestDecRejectsInvalidCiphertext(t *testing.T) {
	_, sk := testKey()
	_, err := sk.Dec(nil)
	assert.Error(t, err)

	// 0 is not a unit mod N².
	zero := new(Ciphertext).SetBytes([]byte{0})
	_, err = sk.Dec(zero)
	assert.Error(t, err)
}

func TestCiphertextBytesRoundTrip(t *testing.T) {
	pk, sk := testKey()
	ct, _ := pk.Enc(rand.Reader, intFromInt64(9))

	back := new(Ciphertext).SetBytes(ct.Bytes())
	assert.True(t, back.Equal(ct))

	got, err := sk.Dec(back)
	require.NoError(t, err)
	assert.True(t, intEqual(intFromInt64(9), got))
}

func TestValidatePrime(t *testing.T) {
	assert.ErrorIs(t, ValidatePrime(nil), ErrPrimeNil)
	assert.ErrorIs(t, ValidatePrime(new(saferith.Nat).SetUint64(23)), ErrPrimeBadLength)
}

func TestKeyGenFullLength(t *testing.T) {
	if testing.Short() {
		t.Skip("full length key generation is expensive")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	pk, sk := KeyGen(rand.Reader, pl)
	require.NoError(t, ValidatePrime(sk.P()))
	require.NoError(t, ValidatePrime(sk.Q()))
	assert.True(t, pk.Equal(sk.PublicKey))

	m := intFromInt64(123456789)
	ct, _ := pk.Enc(rand.Reader, m)
	got, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.True(t, intEqual(m, got))
}
