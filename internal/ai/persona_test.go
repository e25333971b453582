package ai

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadPersonaSeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.txt")

	p, err := LoadPersona(path)
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, DefaultPrompt, p.Prompt())

	seeded, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultPrompt, string(seeded))
}

func TestLoadPersonaReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("You are a grumpy pirate.\n"), 0o644))

	p, err := LoadPersona(path)
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, "You are a grumpy pirate.", p.Prompt())
}

func TestPersonaReloadsOnEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("first take"), 0o644))

	p, err := LoadPersona(path)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, os.WriteFile(path, []byte("second take"), 0o644))

	require.Eventually(t, func() bool {
		return p.Prompt() == "second take"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPersonaIgnoresEmptyEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	p, err := LoadPersona(path)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, "keep me", p.Prompt())
}
