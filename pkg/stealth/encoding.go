package stealth

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/meshcrypt/core-go/pkg/math/curve"
	"golang.org/x/crypto/sha3"
)

// metaAddressPrefix marks a published meta-address string.
const metaAddressPrefix = "st:"

// announcementPrefix marks a payment announcement string.
const announcementPrefix = "mc-"

// ErrMalformedAddress is returned when a meta-address or announcement string
// has the wrong prefix or an undecodable payload.
var ErrMalformedAddress = errors.New("stealth: malformed address string")

// EncodeAddress derives the externally visible address of a stealth public
// key: the last 20 bytes of the keccak256 hash of the uncompressed point
// coordinates, hex encoded with a 0x prefix.
func EncodeAddress(pub *curve.Point) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub.UncompressedBytes()[1:])
	digest := h.Sum(nil)
	return "0x" + hex.EncodeToString(digest[12:])
}

type metaAddressJSON struct {
	SpendPublicKey string `json:"spendPublicKey"`
	ViewPublicKey  string `json:"viewPublicKey"`
}

// EncodeMetaAddress serializes the recipient's published key pair into a
// single shareable string.
func EncodeMetaAddress(spendPub, viewPub *curve.Point) (string, error) {
	spendBytes, err := spendPub.MarshalBinary()
	if err != nil {
		return "", err
	}
	viewBytes, err := viewPub.MarshalBinary()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(metaAddressJSON{
		SpendPublicKey: hex.EncodeToString(spendBytes),
		ViewPublicKey:  hex.EncodeToString(viewBytes),
	})
	if err != nil {
		return "", err
	}
	return metaAddressPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeMetaAddress parses a meta-address string back into the recipient's
// spend and view public keys, failing with ErrMalformedAddress on any
// defect.
func DecodeMetaAddress(s string) (spendPub, viewPub *curve.Point, err error) {
	payload, ok := decodePrefixed(s, metaAddressPrefix)
	if !ok {
		return nil, nil, ErrMalformedAddress
	}
	var meta metaAddressJSON
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, nil, ErrMalformedAddress
	}
	spendPub, err = decodeHexPoint(meta.SpendPublicKey)
	if err != nil {
		return nil, nil, ErrMalformedAddress
	}
	viewPub, err = decodeHexPoint(meta.ViewPublicKey)
	if err != nil {
		return nil, nil, ErrMalformedAddress
	}
	return spendPub, viewPub, nil
}

type announcementJSON struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	Metadata           string `json:"metadata,omitempty"`
}

// EncodeAnnouncement serializes the public part of a payment, the ephemeral
// key and optional metadata, into the string broadcast alongside the
// transaction.
func EncodeAnnouncement(a *Address) (string, error) {
	ephBytes, err := a.EphemeralPub.MarshalBinary()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(announcementJSON{
		EphemeralPublicKey: hex.EncodeToString(ephBytes),
		Metadata:           hex.EncodeToString(a.Metadata),
	})
	if err != nil {
		return "", err
	}
	return announcementPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeAnnouncement parses an announcement string back into its ephemeral
// public key and metadata, failing with ErrMalformedAddress on any defect.
// The address string itself is not part of the announcement; recipients
// rederive it during scanning.
func DecodeAnnouncement(s string) (*Address, error) {
	payload, ok := decodePrefixed(s, announcementPrefix)
	if !ok {
		return nil, ErrMalformedAddress
	}
	var ann announcementJSON
	if err := json.Unmarshal(payload, &ann); err != nil {
		return nil, ErrMalformedAddress
	}
	ephPub, err := decodeHexPoint(ann.EphemeralPublicKey)
	if err != nil {
		return nil, ErrMalformedAddress
	}
	var metadata []byte
	if ann.Metadata != "" {
		metadata, err = hex.DecodeString(ann.Metadata)
		if err != nil {
			return nil, ErrMalformedAddress
		}
	}
	return &Address{EphemeralPub: ephPub, Metadata: metadata}, nil
}

func decodePrefixed(s, prefix string) ([]byte, bool) {
	if !strings.HasPrefix(s, prefix) {
		return nil, false
	}
	payload, err := base64.StdEncoding.DecodeString(s[len(prefix):])
	if err != nil {
		return nil, false
	}
	return payload, true
}

func decodeHexPoint(s string) (*curve.Point, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	p := curve.NewIdentityPoint()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}
