// Package stealth implements dual-key stealth addresses.
//
// A recipient publishes two public keys, one for spending and one for
// viewing. A sender derives a fresh one-time address from them via
// Diffie–Hellman with an ephemeral key, so that only the holder of the view
// private key can detect the payment, and only the holder of the spend
// private key can spend it. Observers cannot link the one-time address back
// to the recipient's published keys.
package stealth

import (
	"crypto/subtle"
	"io"

	"github.com/meshcrypt/core-go/internal/hash"
	"github.com/meshcrypt/core-go/pkg/math/curve"
	"github.com/meshcrypt/core-go/pkg/math/sample"
	"golang.org/x/crypto/sha3"
)

// KeyPair holds a recipient's long-term stealth keys: two independent EC
// key pairs, one for spending and one for viewing.
//
// The private scalars are secret; call Zero when the pair is discarded.
type KeyPair struct {
	SpendPriv *curve.Scalar
	SpendPub  *curve.Point
	ViewPriv  *curve.Scalar
	ViewPub   *curve.Point
}

// Zero wipes the private scalars.
func (kp *KeyPair) Zero() {
	if kp.SpendPriv != nil {
		kp.SpendPriv.Zero()
	}
	if kp.ViewPriv != nil {
		kp.ViewPriv.Zero()
	}
}

// GenerateKeyPair returns a fresh stealth key pair drawn from rand.
func GenerateKeyPair(rand io.Reader) *KeyPair {
	spendPriv, spendPub := sample.ScalarPointPair(rand)
	viewPriv, viewPub := sample.ScalarPointPair(rand)
	return &KeyPair{
		SpendPriv: spendPriv,
		SpendPub:  spendPub,
		ViewPriv:  viewPriv,
		ViewPub:   viewPub,
	}
}

// DeriveKeyPair deterministically derives the stealth key pair for a wallet
// seed and account index. The same seed and index always produce the same
// keys, which is what lets a wallet be restored from its seed phrase.
func DeriveKeyPair(seed []byte, index uint32) *KeyPair {
	spendPriv := deriveScalar(seed, index, "spend")
	viewPriv := deriveScalar(seed, index, "view")
	return &KeyPair{
		SpendPriv: spendPriv,
		SpendPub:  spendPriv.ActOnBase(),
		ViewPriv:  viewPriv,
		ViewPub:   viewPriv.ActOnBase(),
	}
}

func deriveScalar(seed []byte, index uint32, usage string) *curve.Scalar {
	h := hash.New("meshcrypt/stealth/derive")
	_ = h.WriteAny(seed, uint64(index), hash.BytesWithDomain{
		TheDomain: "usage",
		Bytes:     []byte(usage),
	})
	return sample.Scalar(h.Digest())
}

// Address is a one-time payment destination: the derived address string plus
// the ephemeral public key the recipient needs to recompute it.
type Address struct {
	Address      string
	EphemeralPub *curve.Point
	Metadata     []byte
}

// GenerateAddress derives a fresh one-time address for a recipient's
// published spend and view keys. metadata, when present, is folded into the
// derivation and must be presented again at detection time.
func GenerateAddress(rand io.Reader, spendPub, viewPub *curve.Point, metadata []byte) *Address {
	addr, _ := GenerateAddressNote(rand, spendPub, viewPub, metadata)
	return addr
}

// GenerateAddressNote is GenerateAddress, additionally returning the
// symmetric note key shared with the recipient. The sender encrypts the
// output's opening under this key; the recipient recovers the same key with
// RecoverNoteKey.
func GenerateAddressNote(rand io.Reader, spendPub, viewPub *curve.Point, metadata []byte) (*Address, []byte) {
	ephPriv, ephPub := sample.ScalarPointPair(rand)
	defer ephPriv.Zero()

	shared := ephPriv.Act(viewPub)
	offset := sharedOffset(shared, metadata)
	defer offset.Zero()

	stealthPub := curve.NewIdentityPoint().Add(spendPub, offset.ActOnBase())
	addr := &Address{
		Address:      EncodeAddress(stealthPub),
		EphemeralPub: ephPub,
		Metadata:     metadata,
	}
	return addr, noteKey(shared)
}

// RecoverNoteKey recomputes the note key of a payment on the recipient side.
// The result only matches the sender's key when the payment was derived for
// the holder of viewPriv.
func RecoverNoteKey(payment *Address, viewPriv *curve.Scalar) []byte {
	shared := viewPriv.Act(payment.EphemeralPub)
	return noteKey(shared)
}

// IsPaymentForRecipient reports whether the payment was derived for the
// recipient holding viewPriv and spendPub. A mismatch is an ordinary false,
// never an error.
func IsPaymentForRecipient(payment *Address, viewPriv *curve.Scalar, spendPub *curve.Point, metadata []byte) bool {
	if payment == nil || payment.EphemeralPub == nil || viewPriv == nil || spendPub == nil {
		return false
	}
	shared := viewPriv.Act(payment.EphemeralPub)
	offset := sharedOffset(shared, metadata)
	defer offset.Zero()

	stealthPub := curve.NewIdentityPoint().Add(spendPub, offset.ActOnBase())
	expected := EncodeAddress(stealthPub)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(payment.Address)) == 1
}

// RecoverPrivateKey returns the private key of the one-time address derived
// from ephemeralPub, as spendPriv + offset mod q. Its public key equals the
// stealth public key computed at generation time.
//
// The caller owns the returned scalar and must zero it after use.
func RecoverPrivateKey(ephemeralPub *curve.Point, viewPriv, spendPriv *curve.Scalar, metadata []byte) *curve.Scalar {
	shared := viewPriv.Act(ephemeralPub)
	offset := sharedOffset(shared, metadata)
	defer offset.Zero()
	return curve.NewScalar().Add(spendPriv, offset)
}

// ScanPayments returns the payments belonging to the recipient, in input
// order. Each check is independent; see ScanPaymentsParallel for the
// concurrent variant.
func ScanPayments(viewPriv *curve.Scalar, spendPub *curve.Point, payments []*Address) []*Address {
	var matched []*Address
	for _, p := range payments {
		if IsPaymentForRecipient(p, viewPriv, spendPub, p.Metadata) {
			matched = append(matched, p)
		}
	}
	return matched
}

// noteKey hashes the shared point into a 32-byte symmetric key, under a
// different domain than the address offset so the two never collide.
func noteKey(shared *curve.Point) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte("meshcrypt/stealth/note"))
	data, err := shared.MarshalBinary()
	if err != nil {
		data = make([]byte, 33)
	}
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// sharedOffset hashes the Diffie–Hellman shared point, and the metadata when
// present, into the scalar offset added to the spend key.
func sharedOffset(shared *curve.Point, metadata []byte) *curve.Scalar {
	h := sha3.NewLegacyKeccak256()
	data, err := shared.MarshalBinary()
	if err != nil {
		// The shared point is the identity only for degenerate keys;
		// hash a fixed encoding so detection still just fails.
		data = make([]byte, 33)
	}
	_, _ = h.Write(data)
	if len(metadata) > 0 {
		_, _ = h.Write(metadata)
	}
	return curve.NewScalar().SetHash(h.Sum(nil))
}
