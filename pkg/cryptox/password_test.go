package cryptox_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var cheap = cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

func TestHashAndVerify(t *testing.T) {
	t.Parallel()
	h := cryptox.NewPasswordHasher("pepper").WithParams(cheap)

	tests := []struct {
		name     string
		password string
	}{
		{"simple", "password123"},
		{"symbols", "P@ssw0rd!#$%^&*()"},
		{"long", strings.Repeat("a", 100)},
		{"unicode", "пароль🔒密码"},
		{"whitespace", "   spaces   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), cryptox.ErrPasswordMismatch)
		})
	}
}

func TestHashUsesUniqueSalts(t *testing.T) {
	t.Parallel()
	h := cryptox.NewPasswordHasher("pepper").WithParams(cheap)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyDependsOnPepper(t *testing.T) {
	t.Parallel()
	hash, err := cryptox.NewPasswordHasher("one").WithParams(cheap).Hash("secret")
	require.NoError(t, err)

	err = cryptox.NewPasswordHasher("two").Verify("secret", hash)
	require.ErrorIs(t, err, cryptox.ErrPasswordMismatch)
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	t.Parallel()
	h := cryptox.NewPasswordHasher("pepper")

	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		require.ErrorIs(t, h.Verify("x", bad), cryptox.ErrInvalidHash, bad)
	}
}

func TestLoadOrCreatePepper(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	p1, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, p1)

	p2, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}
