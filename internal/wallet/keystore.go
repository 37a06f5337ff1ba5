package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// KeystoreFile is the fixed name the locally generated key is stored under.
const KeystoreFile = "papertrade-keypair.json"

// LoadOrCreateLocal loads the persisted keypair from dir, generating and
// persisting one on first use. The file uses the standard Solana keygen
// JSON format (a byte array), so external tooling can read it.
func LoadOrCreateLocal(dir string) (*Local, error) {
	path := filepath.Join(dir, KeystoreFile)

	if _, err := os.Stat(path); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
		if err != nil {
			return nil, fmt.Errorf("load keystore %q: %w", path, err)
		}
		return NewLocal(key), nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat keystore %q: %w", path, err)
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	if err := writeKeygenFile(path, key); err != nil {
		return nil, err
	}
	return NewLocal(key), nil
}

func writeKeygenFile(path string, key solana.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}
	// Keygen format is a JSON array of byte values, not base64.
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("marshal keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keystore %q: %w", path, err)
	}
	return nil
}
