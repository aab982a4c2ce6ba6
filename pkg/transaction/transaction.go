// Package transaction composes commitments, range proofs and stealth
// addresses into confidential transactions, and verifies them.
//
// A transaction proves three things to a third party without revealing any
// amount: every output value is in range, the inputs balance the outputs
// plus the public fee, and the sender authorized the spend. Recipients find
// and open their outputs by scanning with their view key.
package transaction

import (
	"errors"
	"io"
	"math/big"

	"github.com/meshcrypt/core-go/internal/hash"
	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/pedersen"
	"github.com/meshcrypt/core-go/pkg/pool"
	"github.com/meshcrypt/core-go/pkg/rangeproof"
	"github.com/meshcrypt/core-go/pkg/stealth"
	"github.com/meshcrypt/core-go/pkg/zk/excess"
)

// AmountBits is the range proof bit length used for every output. 64 bits
// bounds any realistic amount while keeping proofs at six folding rounds.
const AmountBits = 64

var (
	// ErrUnbalancedInputs is returned when the plaintext amounts do not
	// satisfy Σ inputs = Σ outputs + fee. The check runs before any
	// commitment is formed, so no proof for an invalid transaction is
	// ever published.
	ErrUnbalancedInputs = errors.New("transaction: inputs do not balance outputs plus fee")
	// ErrNoParticipants is returned when the transaction has no inputs or
	// no recipients.
	ErrNoParticipants = errors.New("transaction: at least one input and one recipient required")
	// ErrKeyUnavailable is returned when an operation needs a private key
	// that was not supplied.
	ErrKeyUnavailable = errors.New("transaction: private key unavailable")
)

// Input is one spent coin: its published commitment plus the opening and
// owner key, which only the spender holds.
type Input struct {
	Commitment     *pedersen.Commitment
	Value          uint64
	BlindingFactor *curve.Scalar
	OwnerPriv      *curve.Scalar
}

// Recipient is a payment destination: the recipient's published stealth
// keys and the amount to send.
type Recipient struct {
	SpendPub *curve.Point
	ViewPub  *curve.Point
	Amount   uint64
	Metadata []byte
}

// Output is one created coin: a commitment to its hidden amount, a range
// proof for that commitment, the one-time destination address, and a note
// encrypted to the recipient carrying the opening.
type Output struct {
	Commitment     *pedersen.Commitment
	RangeProof     *rangeproof.Proof
	StealthAddress *stealth.Address
	EncryptedNote  []byte
}

// Transaction is the published form: input commitments, outputs, the public
// fee, the balance proof over the blinding excess, and the sender's
// authorization. No field reveals an amount.
type Transaction struct {
	Inputs       []*pedersen.Commitment
	Outputs      []*Output
	Fee          uint64
	BalanceProof *excess.Proof
	SenderPub    *curve.Point
	AuthProof    *excess.Proof
}

// Create builds a balanced confidential transaction.
//
// For each recipient it derives a fresh stealth address, commits to the
// amount with a fresh blinding factor, attaches a range proof, and encrypts
// the opening to the recipient. The aggregate blinding excess is folded into
// a Schnorr balance proof bound to the transaction's public data, and the
// sender key signs the same transcript as authorization.
func Create(rand io.Reader, inputs []*Input, recipients []*Recipient, fee uint64, senderPriv *curve.Scalar) (*Transaction, error) {
	if len(inputs) == 0 || len(recipients) == 0 {
		return nil, ErrNoParticipants
	}
	if senderPriv == nil {
		return nil, ErrKeyUnavailable
	}

	// Balance is checked in the clear first; the builder holds every
	// plaintext amount, and a proof for an unbalanced transaction must
	// never exist.
	var totalIn, totalOut uint64
	for _, in := range inputs {
		totalIn += in.Value
	}
	for _, r := range recipients {
		totalOut += r.Amount
	}
	if totalIn != totalOut+fee {
		return nil, ErrUnbalancedInputs
	}

	tx := &Transaction{
		Inputs:    make([]*pedersen.Commitment, len(inputs)),
		Outputs:   make([]*Output, len(recipients)),
		Fee:       fee,
		SenderPub: senderPriv.ActOnBase(),
	}
	for i, in := range inputs {
		tx.Inputs[i] = in.Commitment
	}

	// excessScalar = Σ input blindings - Σ output blindings, the discrete
	// log left over in the commitment balance equation.
	excessScalar := curve.NewScalar()
	defer excessScalar.Zero()
	for _, in := range inputs {
		excessScalar.Add(excessScalar, in.BlindingFactor)
	}

	for i, r := range recipients {
		addr, noteKey := stealth.GenerateAddressNote(rand, r.SpendPub, r.ViewPub, r.Metadata)
		commitment, blinding, err := pedersen.CommitRandom(rand, new(big.Int).SetUint64(r.Amount))
		if err != nil {
			return nil, err
		}
		proof, err := rangeproof.Prove(rand, r.Amount, blinding, AmountBits)
		if err != nil {
			blinding.Zero()
			return nil, err
		}
		note, err := sealNote(rand, noteKey, r.Amount, blinding)
		if err != nil {
			blinding.Zero()
			return nil, err
		}
		excessScalar.Subtract(excessScalar, blinding)
		blinding.Zero()

		tx.Outputs[i] = &Output{
			Commitment:     commitment,
			RangeProof:     proof,
			StealthAddress: addr,
			EncryptedNote:  note,
		}
	}

	tx.BalanceProof = excess.Prove(tx.transcript("balance"), rand, excessScalar)
	tx.AuthProof = excess.Prove(tx.transcript("auth"), rand, senderPriv)
	return tx, nil
}

// Verify checks the whole transaction: every output's range proof against
// its commitment, the commitment balance equation, the balance proof, and
// the sender authorization. Any single failure yields false.
func (tx *Transaction) Verify() bool {
	if tx == nil || len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return false
	}
	if tx.BalanceProof == nil || tx.AuthProof == nil || tx.SenderPub == nil {
		return false
	}

	for _, out := range tx.Outputs {
		if out == nil || out.Commitment == nil || out.RangeProof == nil || out.StealthAddress == nil {
			return false
		}
		if out.RangeProof.Bits() != AmountBits {
			return false
		}
		if !out.RangeProof.V.Equal(out.Commitment.Point()) {
			return false
		}
		if !out.RangeProof.Verify() {
			return false
		}
	}

	E := tx.excessPoint()
	if !tx.BalanceProof.Verify(tx.transcript("balance"), E) {
		return false
	}
	return tx.AuthProof.Verify(tx.transcript("auth"), tx.SenderPub)
}

// VerifyBatch verifies many transactions over the pool, with the same
// result as verifying each individually.
func VerifyBatch(pl *pool.Pool, txs []*Transaction) bool {
	results := pl.Parallelize(len(txs), func(i int) interface{} {
		return txs[i].Verify()
	})
	for _, ok := range results {
		if !ok.(bool) {
			return false
		}
	}
	return true
}

// excessPoint recomputes E = Σ inputs - Σ outputs - fee·H from public data.
// When the transaction balances, E = excess·G.
func (tx *Transaction) excessPoint() *curve.Point {
	E := curve.NewIdentityPoint()
	for _, in := range tx.Inputs {
		E.Add(E, in.Point())
	}
	for _, out := range tx.Outputs {
		E.Subtract(E, out.Commitment.Point())
	}
	fee := curve.NewScalarUInt64(tx.Fee)
	E.Subtract(E, fee.Act(pedersen.GeneratorH()))
	return E
}

// transcript binds every public field in a fixed order. Prover and verifier
// must derive identical challenges, so the serialization here is part of the
// wire contract.
func (tx *Transaction) transcript(label string) *hash.Hash {
	h := hash.New("meshcrypt/transaction/" + label)
	_ = h.WriteAny(uint64(len(tx.Inputs)), uint64(len(tx.Outputs)), tx.Fee)
	for _, in := range tx.Inputs {
		_ = h.WriteAny(in)
	}
	for _, out := range tx.Outputs {
		_ = h.WriteAny(out.Commitment, out.StealthAddress.EphemeralPub)
		_ = h.WriteAny([]byte(out.StealthAddress.Address))
		_ = h.WriteAny(out.StealthAddress.Metadata)
	}
	return h
}

// Received is an output recovered during scanning, opened with the
// recipient's keys.
type Received struct {
	Output     *Output
	Value      uint64
	Blinding   *curve.Scalar
	PrivateKey *curve.Scalar
}

// ScanOutputs returns the outputs belonging to the holder of viewPriv and
// spendPriv, with their openings decrypted and one-time private keys
// recovered. Outputs whose notes fail to decrypt are skipped; a corrupted
// note on someone else's output is not this recipient's problem.
func (tx *Transaction) ScanOutputs(viewPriv, spendPriv *curve.Scalar) ([]*Received, error) {
	if viewPriv == nil || spendPriv == nil {
		return nil, ErrKeyUnavailable
	}
	spendPub := spendPriv.ActOnBase()

	var found []*Received
	for _, out := range tx.Outputs {
		addr := out.StealthAddress
		if !stealth.IsPaymentForRecipient(addr, viewPriv, spendPub, addr.Metadata) {
			continue
		}
		value, blinding, err := openNote(stealth.RecoverNoteKey(addr, viewPriv), out.EncryptedNote)
		if err != nil {
			continue
		}
		found = append(found, &Received{
			Output:     out,
			Value:      value,
			Blinding:   blinding,
			PrivateKey: stealth.RecoverPrivateKey(addr.EphemeralPub, viewPriv, spendPriv, addr.Metadata),
		})
	}
	return found, nil
}

// EstimateSize returns the approximate serialized size in bytes of a
// transaction with the given shape, for fee estimation by the wallet layer.
// It is a pure function of the counts and the fixed per-item costs.
func EstimateSize(inputCount, outputCount int) int {
	const (
		schnorrLen = params.BytesPoint + params.BytesScalar
		// address string, ephemeral key, metadata and note framing
		stealthOverhead = 192
		feeLen          = 8
	)
	perOutput := params.BytesPoint + rangeproof.Size(AmountBits) + stealthOverhead
	return inputCount*params.BytesPoint +
		outputCount*perOutput +
		2*schnorrLen + params.BytesPoint + feeLen
}
