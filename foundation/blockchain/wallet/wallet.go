// Package wallet manages secp256k1 keypairs and the addresses derived from
// them.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/minichain/node/foundation/blockchain/signature"
)

// Wallet represents a keypair that can sign transactions.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
}

// New generates a wallet with a fresh random keypair.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}

	return &Wallet{privateKey: privateKey}, nil
}

// FromHex reconstructs a wallet from hex encoded key material. The public key
// is cross-checked against the private key so mismatched pairs are rejected
// before anything gets signed.
func FromHex(publicKeyHex string, privateKeyHex string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	publicKey, err := crypto.DecompressPubkey(pub)
	if err != nil {
		return nil, fmt.Errorf("decompressing public key: %w", err)
	}

	if signature.Address(publicKey) != signature.Address(&privateKey.PublicKey) {
		return nil, errors.New("public key does not match private key")
	}

	return &Wallet{privateKey: privateKey}, nil
}

// Load reads a private key file written by Save.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading private key: %w", err)
	}

	return &Wallet{privateKey: privateKey}, nil
}

// Save writes the private key to the specified file.
func (w *Wallet) Save(path string) error {
	return crypto.SaveECDSA(path, w.privateKey)
}

// PrivateKey returns the underlying key for signing.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// Address returns the wallet address: the hex SHA-256 of the serialized
// public key.
func (w *Wallet) Address() string {
	return signature.Address(&w.privateKey.PublicKey)
}

// =============================================================================

// Export is the serializable form of a wallet handed to clients that create
// wallets through the RPC surface.
type Export struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
}

// Export returns the hex encoded key material and the derived address.
func (w *Wallet) Export() Export {
	return Export{
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(w.privateKey)),
		PublicKey:  hex.EncodeToString(crypto.CompressPubkey(&w.privateKey.PublicKey)),
		Address:    w.Address(),
	}
}
