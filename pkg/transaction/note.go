package transaction

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"

	"github.com/meshcrypt/core-go/internal/params"
	"github.com/meshcrypt/core-go/pkg/math/curve"
)

// notePlaintextLen is an 8-byte amount followed by the 32-byte blinding
// factor.
const notePlaintextLen = 8 + params.BytesScalar

var errMalformedNote = errors.New("transaction: malformed encrypted note")

// sealNote encrypts the output's opening (value, blinding) to the recipient
// under the shared note key, AES-256-GCM with the nonce prepended.
func sealNote(rand io.Reader, key []byte, value uint64, blinding *curve.Scalar) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, err
	}

	plaintext := make([]byte, notePlaintextLen)
	binary.BigEndian.PutUint64(plaintext[:8], value)
	copy(plaintext[8:], blinding.Bytes())
	defer func() {
		for i := range plaintext {
			plaintext[i] = 0
		}
	}()

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// openNote decrypts a note and returns the opening. The caller owns the
// returned blinding scalar.
func openNote(key, note []byte) (uint64, *curve.Scalar, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return 0, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return 0, nil, err
	}
	if len(note) < aead.NonceSize() {
		return 0, nil, errMalformedNote
	}

	plaintext, err := aead.Open(nil, note[:aead.NonceSize()], note[aead.NonceSize():], nil)
	if err != nil {
		return 0, nil, errMalformedNote
	}
	if len(plaintext) != notePlaintextLen {
		return 0, nil, errMalformedNote
	}

	value := binary.BigEndian.Uint64(plaintext[:8])
	blinding := curve.NewScalar()
	if err := blinding.UnmarshalBinary(plaintext[8:]); err != nil {
		return 0, nil, errMalformedNote
	}
	for i := range plaintext {
		plaintext[i] = 0
	}
	return value, blinding, nil
}
