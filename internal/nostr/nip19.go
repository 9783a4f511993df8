package nostr

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// NIP-19 bech32 entity encoding. Only the two prefixes the bots use.

func encodeBech32(hrp, hexData string) (string, error) {
	b, err := hex.DecodeString(hexData)
	if err != nil {
		return "", fmt.Errorf("decode %s payload: %w", hrp, err)
	}
	grp, err := bech32.ConvertBits(b, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, grp)
}

// EncodeNpub encodes a hex public key as npub1...
func EncodeNpub(pubkey string) (string, error) {
	return encodeBech32("npub", pubkey)
}

// EncodeNote encodes a hex event ID as note1...
func EncodeNote(id string) (string, error) {
	return encodeBech32("note", id)
}

// DecodeNpub decodes npub1... back to a hex public key.
func DecodeNpub(npub string) (string, error) {
	hrp, grp, err := bech32.Decode(npub)
	if err != nil {
		return "", err
	}
	if hrp != "npub" {
		return "", fmt.Errorf("not an npub: %q", hrp)
	}
	b, err := bech32.ConvertBits(grp, 5, 8, false)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
