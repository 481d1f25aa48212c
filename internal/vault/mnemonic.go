package vault

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits yields a 12-word phrase.
const MnemonicEntropyBits = 128

// DerivationPath is m/44'/60'/0'/0/0, the first external EVM account.
var DerivationPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild + 0,
	0,
	0,
}

// NewMnemonic generates a fresh BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DeriveAccount derives the private key and address at DerivationPath.
func DeriveAccount(mnemonic string) (*ecdsa.PrivateKey, common.Address, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("mnemonic to seed: %w", err)
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range DerivationPath {
		if key, err = key.NewChildKey(idx); err != nil {
			return nil, common.Address{}, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	raw := key.Key
	if len(raw) > 32 {
		raw = raw[len(raw)-32:]
	}
	priv, err := crypto.ToECDSA(common.LeftPadBytes(raw, 32))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("convert private key: %w", err)
	}
	return priv, crypto.PubkeyToAddress(priv.PublicKey), nil
}
