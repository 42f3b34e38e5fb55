// Package wallet provisions one Ethereum keypair per registered account.
// Generation is pure: no chain access, no dependency on any other wallet.
package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is a freshly generated keypair: an EIP-55 checksummed address
// and the 0x-prefixed private key hex.
type Wallet struct {
	Address    string
	PrivateKey string
}

// Generator creates new wallets.
type Generator struct{}

// NewGenerator creates a wallet Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a new random secp256k1 wallet.
func (g *Generator) Generate() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	return &Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}
