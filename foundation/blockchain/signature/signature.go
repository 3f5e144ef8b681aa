// Package signature provides the helper functions for hashing, signing, and
// recovering transaction signatures.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Length is the byte length of a recoverable signature: 64 bytes of compact
// ECDSA [R||S] plus one recovery id byte.
const Length = crypto.SignatureLength

// Digest hashes the canonical byte sequence that gets signed. The same digest
// doubles as the transaction hash, so the signature never participates in
// transaction identity.
func Digest(data string) []byte {
	digest := sha256.Sum256([]byte(data))
	return digest[:]
}

// Hash returns the hex encoded digest for the canonical byte sequence.
func Hash(data string) string {
	return hex.EncodeToString(Digest(data))
}

// Sign signs the digest of the canonical byte sequence with the private key
// over the secp256k1 curve and returns the hex encoded 65 byte recoverable
// signature.
func Sign(data string, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(Digest(data), privateKey)
	if err != nil {
		return "", fmt.Errorf("signing digest: %w", err)
	}

	return hex.EncodeToString(sig), nil
}

// RecoverAddress runs public key recovery against the digest of the canonical
// byte sequence and returns the address of the key that produced the
// signature. The public key never travels on the wire; recovery is the only
// path back to it.
func RecoverAddress(data string, sigHex string) (string, error) {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != Length {
		return "", errors.New("signature must be 65 bytes")
	}

	publicKey, err := crypto.SigToPub(Digest(data), sig)
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}

	return Address(publicKey), nil
}

// Address derives the wallet address for a public key: the hex encoded
// SHA-256 digest of the serialized (compressed) public key.
func Address(publicKey *ecdsa.PublicKey) string {
	digest := sha256.Sum256(crypto.CompressPubkey(publicKey))
	return hex.EncodeToString(digest[:])
}
