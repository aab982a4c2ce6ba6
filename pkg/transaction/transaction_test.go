package transaction

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"github.com/meshcrypt/core-go/pkg/pedersen"
	"github.com/meshcrypt/core-go/pkg/pool"
	"github.com/meshcrypt/core-go/pkg/stealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInput(t *testing.T, value uint64) *Input {
	t.Helper()
	c, blinding, err := pedersen.CommitRandom(rand.Reader, new(big.Int).SetUint64(value))
	require.NoError(t, err)
	return &Input{
		Commitment:     c,
		Value:          value,
		BlindingFactor: blinding,
		OwnerPriv:      sample.Scalar(rand.Reader),
	}
}

func newRecipient(t *testing.T, amount uint64) (*Recipient, *stealth.KeyPair) {
	t.Helper()
	kp := stealth.GenerateKeyPair(rand.Reader)
	return &Recipient{
		SpendPub: kp.SpendPub,
		ViewPub:  kp.ViewPub,
		Amount:   amount,
	}, kp
}

func TestCreateAndVerify(t *testing.T) {
	// Input 1000 → outputs 400 and 550, fee 50.
	in := newInput(t, 1000)
	r1, _ := newRecipient(t, 400)
	r2, _ := newRecipient(t, 550)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 50, sender)
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 2)
	assert.True(t, tx.Verify())
}

func TestUnbalancedRejected(t *testing.T) {
	// Outputs 400 + 551 + fee 50 = 1001 ≠ 1000.
	in := newInput(t, 1000)
	r1, _ := newRecipient(t, 400)
	r2, _ := newRecipient(t, 551)
	sender := sample.Scalar(rand.Reader)

	_, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 50, sender)
	assert.ErrorIs(t, err, ErrUnbalancedInputs)
}

func TestTamperedCommitmentFails(t *testing.T) {
	in := newInput(t, 1000)
	r1, _ := newRecipient(t, 400)
	r2, _ := newRecipient(t, 550)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 50, sender)
	require.NoError(t, err)
	require.True(t, tx.Verify())

	// Flip one bit in an output commitment's encoding. Toggling the
	// compression tag keeps the bytes decodable but negates the point.
	data, err := tx.Outputs[0].Commitment.MarshalBinary()
	require.NoError(t, err)
	data[0] ^= 0x01
	tampered := &pedersen.Commitment{}
	require.NoError(t, tampered.UnmarshalBinary(data))
	tx.Outputs[0].Commitment = tampered
	assert.False(t, tx.Verify())
}

func TestTamperedFeeFails(t *testing.T) {
	in := newInput(t, 1000)
	r1, _ := newRecipient(t, 950)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1}, 50, sender)
	require.NoError(t, err)
	require.True(t, tx.Verify())

	tx.Fee = 49
	assert.False(t, tx.Verify(), "changing the fee must break the balance proof")
}

func TestMultipleInputs(t *testing.T) {
	in1 := newInput(t, 600)
	in2 := newInput(t, 400)
	r1, _ := newRecipient(t, 990)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in1, in2}, []*Recipient{r1}, 10, sender)
	require.NoError(t, err)
	assert.True(t, tx.Verify())
}

func TestCreateRejectsDegenerate(t *testing.T) {
	in := newInput(t, 100)
	r, _ := newRecipient(t, 100)

	_, err := Create(rand.Reader, nil, []*Recipient{r}, 0, sample.Scalar(rand.Reader))
	assert.ErrorIs(t, err, ErrNoParticipants)
	_, err = Create(rand.Reader, []*Input{in}, nil, 0, sample.Scalar(rand.Reader))
	assert.ErrorIs(t, err, ErrNoParticipants)
	_, err = Create(rand.Reader, []*Input{in}, []*Recipient{r}, 0, nil)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestScanOutputs(t *testing.T) {
	in := newInput(t, 1000)
	r1, kp1 := newRecipient(t, 400)
	r2, _ := newRecipient(t, 550)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 50, sender)
	require.NoError(t, err)

	found, err := tx.ScanOutputs(kp1.ViewPriv, kp1.SpendPriv)
	require.NoError(t, err)
	require.Len(t, found, 1, "recipient one owns exactly one output")

	got := found[0]
	assert.Equal(t, uint64(400), got.Value)
	assert.True(t, got.Output.Commitment.Verify(big.NewInt(400), got.Blinding),
		"decrypted note must open the commitment")
	assert.Equal(t, got.Output.StealthAddress.Address, stealth.EncodeAddress(got.PrivateKey.ActOnBase()),
		"recovered key must control the one-time address")

	_, err = tx.ScanOutputs(nil, kp1.SpendPriv)
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	stranger := stealth.GenerateKeyPair(rand.Reader)
	none, err := tx.ScanOutputs(stranger.ViewPriv, stranger.SpendPriv)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMarshalRoundTrip(t *testing.T) {
	in := newInput(t, 500)
	r1, kp1 := newRecipient(t, 300)
	r2, _ := newRecipient(t, 195)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 5, sender)
	require.NoError(t, err)

	data, err := tx.MarshalBinary()
	require.NoError(t, err)

	var back Transaction
	require.NoError(t, back.UnmarshalBinary(data))
	assert.True(t, back.Verify(), "transaction must survive serialization")

	// Scanning still works on the deserialized form.
	found, err := back.ScanOutputs(kp1.ViewPriv, kp1.SpendPriv)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uint64(300), found[0].Value)

	// Deterministic encoding: marshaling again gives identical bytes.
	again, err := back.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	assert.Error(t, back.UnmarshalBinary([]byte("not cbor")))
}

func TestVerifyBatch(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	txs := make([]*Transaction, 3)
	for i := range txs {
		in := newInput(t, 100)
		r, _ := newRecipient(t, 90)
		var err error
		txs[i], err = Create(rand.Reader, []*Input{in}, []*Recipient{r}, 10, sample.Scalar(rand.Reader))
		require.NoError(t, err)
	}
	assert.True(t, VerifyBatch(pl, txs))
	assert.True(t, VerifyBatch(nil, txs))

	txs[1].Fee = 11
	assert.False(t, VerifyBatch(pl, txs))
}

func TestEstimateSize(t *testing.T) {
	small := EstimateSize(1, 1)
	big2 := EstimateSize(2, 3)
	assert.Greater(t, small, 0)
	assert.Greater(t, big2, small)
	// Adding an output costs more than adding an input: outputs carry a
	// range proof.
	assert.Greater(t, EstimateSize(1, 2)-EstimateSize(1, 1), EstimateSize(2, 1)-EstimateSize(1, 1))

	// The estimate should be in the ballpark of a real serialization.
	in := newInput(t, 100)
	r, _ := newRecipient(t, 90)
	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r}, 10, sample.Scalar(rand.Reader))
	require.NoError(t, err)
	data, err := tx.MarshalBinary()
	require.NoError(t, err)
	estimate := EstimateSize(1, 1)
	assert.InDelta(t, len(data), estimate, float64(estimate)/2)
}

func TestAnalyze(t *testing.T) {
	in := newInput(t, 1000)
	r1, _ := newRecipient(t, 400)
	r2, _ := newRecipient(t, 550)
	sender := sample.Scalar(rand.Reader)

	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r1, r2}, 50, sender)
	require.NoError(t, err)

	full := Analyze(tx)
	assert.Equal(t, 100, full.Score, "a built transaction uses every primitive")
	assert.NotEmpty(t, full.Details)

	// Analyze inspects shape only; stripping features lowers the score.
	tx.Outputs[0].RangeProof = nil
	assert.Equal(t, 75, Analyze(tx).Score)

	tx.BalanceProof = nil
	assert.Equal(t, 55, Analyze(tx).Score)

	tx.Outputs[0].StealthAddress = nil
	assert.Equal(t, 30, Analyze(tx).Score)

	assert.Equal(t, 0, Analyze(nil).Score)
}

func TestAnalyzeIsAdvisory(t *testing.T) {
	// A structurally complete but cryptographically broken transaction
	// still scores: Analyze must never stand in for Verify.
	in := newInput(t, 1000)
	r, _ := newRecipient(t, 990)
	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r}, 10, sample.Scalar(rand.Reader))
	require.NoError(t, err)

	tx.Fee = 11
	assert.False(t, tx.Verify())
	assert.Equal(t, 100, Analyze(tx).Score)
}

func TestBalanceEquationHolds(t *testing.T) {
	// Σ inputs = Σ outputs + fee·H + excess·G: the recomputed excess point
	// must be a multiple of G, which the balance proof then attests.
	in := newInput(t, 1000)
	r, _ := newRecipient(t, 990)
	tx, err := Create(rand.Reader, []*Input{in}, []*Recipient{r}, 10, sample.Scalar(rand.Reader))
	require.NoError(t, err)

	E := tx.excessPoint()
	assert.False(t, E.IsIdentity())
	assert.True(t, tx.BalanceProof.Verify(tx.transcript("balance"), E))
	assert.False(t, tx.BalanceProof.Verify(tx.transcript("balance"), curve.NewBasePoint()))
}
