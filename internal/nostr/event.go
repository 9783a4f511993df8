package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Event kinds we care about.
const (
	KindProfile = 0
	KindText    = 1
)

// Event is one signed Nostr note (NIP-01). Never mutated after Sign.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Serialize returns the canonical NIP-01 form used for ID computation:
// [0,pubkey,created_at,kind,tags,content] with no HTML escaping.
func (ev *Event) Serialize() []byte {
	tags := ev.Tags
	if tags == nil {
		tags = [][]string{}
	}
	arr := []any{0, ev.PubKey, ev.CreatedAt, ev.Kind, tags, ev.Content}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(arr)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// ComputeID returns the hex sha256 of the serialized event.
func (ev *Event) ComputeID() string {
	sum := sha256.Sum256(ev.Serialize())
	return hex.EncodeToString(sum[:])
}

// Sign fills PubKey, ID and Sig from the given key.
func (ev *Event) Sign(priv *secp256k1.PrivateKey) error {
	ev.PubKey = hex.EncodeToString(priv.PubKey().SerializeCompressed()[1:])
	if ev.Tags == nil {
		ev.Tags = [][]string{}
	}
	sum := sha256.Sum256(ev.Serialize())
	ev.ID = hex.EncodeToString(sum[:])

	sig, err := schnorr.Sign(priv, sum[:])
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	ev.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// Verify checks the schnorr signature against the event's own ID.
func (ev *Event) Verify() bool {
	pk, err := hex.DecodeString(ev.PubKey)
	if err != nil {
		return false
	}
	pub, err := schnorr.ParsePubKey(pk)
	if err != nil {
		return false
	}
	sg, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(sg)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(ev.Serialize())
	return ev.ID == hex.EncodeToString(sum[:]) && sig.Verify(sum[:], pub)
}

// TagValues returns the values of every tag with the given name.
func (ev *Event) TagValues(name string) []string {
	var out []string
	for _, t := range ev.Tags {
		if len(t) >= 2 && t[0] == name {
			out = append(out, t[1])
		}
	}
	return out
}

// ParseKey decodes a 32-byte hex private key.
func ParseKey(hexKey string) (*secp256k1.PrivateKey, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("bad private key: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("bad private key: want 32 bytes, got %d", len(b))
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

// PublicKeyHex returns the x-only public key for a hex private key.
func PublicKeyHex(hexKey string) (string, error) {
	priv, err := ParseKey(hexKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(priv.PubKey().SerializeCompressed()[1:]), nil
}
