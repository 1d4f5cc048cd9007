package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 key from cfg.SigningKeyFile, creating the
// file on first start. Without a file the key lives in memory only and every
// token dies with the process.
//
// The kid is derived from the key, so instances sharing a key file publish
// the same JWKS entry.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, error) {
	var (
		pemKey []byte
		err    error
	)
	if cfg.SigningKeyFile != "" {
		pemKey, err = cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile)
	} else {
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Warn("using an ephemeral signing key; tokens will not survive a restart")
	}

	sum := sha256.Sum256(pemKey)
	signer, err := jwtx.NewSignerEdDSA(hex.EncodeToString(sum[:8]), pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, fmt.Errorf("failed to publish signing key: %w", err)
	}
	return signer, keys, nil
}
