package sample

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/pool"
	"github.com/stretchr/testify/require"
)

func TestPrimesSieve(t *testing.T) {
	small := primes(100)
	require.Equal(t, []uint32{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}, small)
}

func TestPaillierPrimes(t *testing.T) {
	if testing.Short() {
		t.Skip("safe prime generation is expensive")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	p, q := Paillier(rand.Reader, pl)
	one := new(big.Int).SetUint64(1)
	for _, prime := range []*saferith.Nat{p, q} {
		pBig := prime.Big()
		require.Equal(t, params.BitsBlumPrime, pBig.BitLen())
		require.Equal(t, big.Word(3), pBig.Bits()[0]&3, "prime must be 3 mod 4")
		require.True(t, pBig.ProbablyPrime(20))

		half := new(big.Int).Sub(pBig, one)
		half.Rsh(half, 1)
		require.True(t, half.ProbablyPrime(20), "(p - 1) / 2 must also be prime")
	}
}
