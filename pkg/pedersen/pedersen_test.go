package pedersen

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitVerifyRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1 << 32, 1<<64 - 1} {
		value := new(big.Int).SetUint64(v)
		c, blinding, err := CommitRandom(rand.Reader, value)
		require.NoError(t, err)
		assert.True(t, c.Verify(value, blinding))
	}
}

func TestVerifyRejectsWrongOpening(t *testing.T) {
	value := big.NewInt(1000)
	c, blinding, err := CommitRandom(rand.Reader, value)
	require.NoError(t, err)

	assert.False(t, c.Verify(big.NewInt(1001), blinding), "wrong value")
	assert.False(t, c.Verify(value, sample.Scalar(rand.Reader)), "wrong blinding")
}

func TestCommitRejectsOutOfDomain(t *testing.T) {
	blinding := sample.Scalar(rand.Reader)

	_, err := Commit(big.NewInt(-1), blinding)
	assert.ErrorIs(t, err, ErrInvalidValue)

	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = Commit(huge, blinding)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Commit(nil, blinding)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestHomomorphism(t *testing.T) {
	v1, v2 := big.NewInt(123), big.NewInt(456)
	c1, r1, err := CommitRandom(rand.Reader, v1)
	require.NoError(t, err)
	c2, r2, err := CommitRandom(rand.Reader, v2)
	require.NoError(t, err)

	sum := Add(c1, c2)
	vSum := new(big.Int).Add(v1, v2)
	rSum := curve.NewScalar().Add(r1, r2)
	assert.True(t, sum.Verify(vSum, rSum), "sum must open to the sums of values and blindings")

	diff := Sub(sum, c2)
	assert.True(t, diff.Verify(v1, r1))
}

func TestBindingStatistical(t *testing.T) {
	// Same blinding, different values must give different commitments.
	blinding := sample.Scalar(rand.Reader)
	seen := make(map[string]struct{})
	for v := int64(0); v < 100; v++ {
		c, err := Commit(big.NewInt(v), blinding)
		require.NoError(t, err)
		data, err := c.MarshalBinary()
		require.NoError(t, err)
		_, dup := seen[string(data)]
		require.False(t, dup, "distinct values collided at v=%d", v)
		seen[string(data)] = struct{}{}
	}
}

func TestCommitmentMarshalRoundTrip(t *testing.T) {
	c, _, err := CommitRandom(rand.Reader, big.NewInt(7))
	require.NoError(t, err)

	data, err := c.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 33)

	var back Commitment
	require.NoError(t, back.UnmarshalBinary(data))
	assert.True(t, back.Equal(c))
}

func TestDerivedGeneratorsIndependent(t *testing.T) {
	H := GeneratorH()
	assert.False(t, H.IsIdentity())
	assert.False(t, H.Equal(curve.NewBasePoint()), "H must differ from G")

	other := DeriveGenerator("some other label")
	assert.False(t, other.Equal(H), "distinct labels must give distinct generators")
	assert.True(t, DeriveGenerator("some other label").Equal(other), "derivation must be deterministic")
}
