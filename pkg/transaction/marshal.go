package transaction

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/pedersen"
	"github.com/meshcrypt/core-go/pkg/rangeproof"
	"github.com/meshcrypt/core-go/pkg/stealth"
	"github.com/meshcrypt/core-go/pkg/zk/excess"
)

// The encoding must be deterministic: verifiers rehash serialized
// transactions, and two encodings of the same transaction would split the
// transcript.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

var errMalformedTransaction = errors.New("transaction: malformed transaction bytes")

type outputWire struct {
	Commitment []byte `cbor:"1,keyasint"`
	RangeProof []byte `cbor:"2,keyasint"`
	Address    string `cbor:"3,keyasint"`
	Ephemeral  []byte `cbor:"4,keyasint"`
	Metadata   []byte `cbor:"5,keyasint,omitempty"`
	Note       []byte `cbor:"6,keyasint,omitempty"`
}

type transactionWire struct {
	Inputs    [][]byte     `cbor:"1,keyasint"`
	Outputs   []outputWire `cbor:"2,keyasint"`
	Fee       uint64       `cbor:"3,keyasint"`
	BalanceR  []byte       `cbor:"4,keyasint"`
	BalanceS  []byte       `cbor:"5,keyasint"`
	SenderPub []byte       `cbor:"6,keyasint"`
	AuthR     []byte       `cbor:"7,keyasint"`
	AuthS     []byte       `cbor:"8,keyasint"`
}

// MarshalBinary implements encoding.BinaryMarshaler with a deterministic
// CBOR encoding of the public fields in fixed order.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	wire := transactionWire{
		Inputs:  make([][]byte, len(tx.Inputs)),
		Outputs: make([]outputWire, len(tx.Outputs)),
		Fee:     tx.Fee,
	}
	var err error
	for i, in := range tx.Inputs {
		if wire.Inputs[i], err = in.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	for i, out := range tx.Outputs {
		ow := outputWire{
			Address:  out.StealthAddress.Address,
			Metadata: out.StealthAddress.Metadata,
			Note:     out.EncryptedNote,
		}
		if ow.Commitment, err = out.Commitment.MarshalBinary(); err != nil {
			return nil, err
		}
		if ow.RangeProof, err = out.RangeProof.Bytes(); err != nil {
			return nil, err
		}
		if ow.Ephemeral, err = out.StealthAddress.EphemeralPub.MarshalBinary(); err != nil {
			return nil, err
		}
		wire.Outputs[i] = ow
	}
	if wire.BalanceR, err = tx.BalanceProof.R.MarshalBinary(); err != nil {
		return nil, err
	}
	if wire.BalanceS, err = tx.BalanceProof.S.MarshalBinary(); err != nil {
		return nil, err
	}
	if wire.SenderPub, err = tx.SenderPub.MarshalBinary(); err != nil {
		return nil, err
	}
	if wire.AuthR, err = tx.AuthProof.R.MarshalBinary(); err != nil {
		return nil, err
	}
	if wire.AuthS, err = tx.AuthProof.S.MarshalBinary(); err != nil {
		return nil, err
	}
	return encMode.Marshal(wire)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Any defect in the
// byte string surfaces immediately; nothing is silently coerced.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	var wire transactionWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return errMalformedTransaction
	}

	out := Transaction{
		Inputs:  make([]*pedersen.Commitment, len(wire.Inputs)),
		Outputs: make([]*Output, len(wire.Outputs)),
		Fee:     wire.Fee,
	}
	for i, in := range wire.Inputs {
		out.Inputs[i] = &pedersen.Commitment{}
		if err := out.Inputs[i].UnmarshalBinary(in); err != nil {
			return errMalformedTransaction
		}
	}
	for i, ow := range wire.Outputs {
		proof, err := rangeproof.FromBytes(ow.RangeProof)
		if err != nil {
			return errMalformedTransaction
		}
		commitment := &pedersen.Commitment{}
		if err := commitment.UnmarshalBinary(ow.Commitment); err != nil {
			return errMalformedTransaction
		}
		eph := curve.NewIdentityPoint()
		if err := eph.UnmarshalBinary(ow.Ephemeral); err != nil {
			return errMalformedTransaction
		}
		out.Outputs[i] = &Output{
			Commitment: commitment,
			RangeProof: proof,
			StealthAddress: &stealth.Address{
				Address:      ow.Address,
				EphemeralPub: eph,
				Metadata:     ow.Metadata,
			},
			EncryptedNote: ow.Note,
		}
	}

	balance, err := decodeSchnorr(wire.BalanceR, wire.BalanceS)
	if err != nil {
		return errMalformedTransaction
	}
	auth, err := decodeSchnorr(wire.AuthR, wire.AuthS)
	if err != nil {
		return errMalformedTransaction
	}
	sender := curve.NewIdentityPoint()
	if err := sender.UnmarshalBinary(wire.SenderPub); err != nil {
		return errMalformedTransaction
	}

	out.BalanceProof = balance
	out.AuthProof = auth
	out.SenderPub = sender
	*tx = out
	return nil
}

func decodeSchnorr(rBytes, sBytes []byte) (*excess.Proof, error) {
	R := curve.NewIdentityPoint()
	if err := R.UnmarshalBinary(rBytes); err != nil {
		return nil, err
	}
	S := curve.NewScalar()
	if err := S.UnmarshalBinary(sBytes); err != nil {
		return nil, err
	}
	return &excess.Proof{R: R, S: S}, nil
}
