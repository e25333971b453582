package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type synthFn func(ctx context.Context, text string) ([]byte, error)

func (f synthFn) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

func TestFallbackPrefersPrimary(t *testing.T) {
	backupCalled := false
	f := &Fallback{
		Primary: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			return []byte("cloud"), nil
		}),
		Backup: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			backupCalled = true
			return []byte("local"), nil
		}),
	}

	data, err := f.Synthesize(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, []byte("cloud"), data)
	require.False(t, backupCalled)
}

func TestFallbackUsesBackupOnFailure(t *testing.T) {
	f := &Fallback{
		Primary: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		}),
		Backup: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			return []byte("local"), nil
		}),
	}

	data, err := f.Synthesize(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, []byte("local"), data)
}

func TestFallbackPropagatesBackupError(t *testing.T) {
	f := &Fallback{
		Primary: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			return nil, errors.New("network down")
		}),
		Backup: synthFn(func(_ context.Context, _ string) ([]byte, error) {
			return nil, errors.New("espeak missing")
		}),
	}

	_, err := f.Synthesize(context.Background(), "hi")
	require.ErrorContains(t, err, "espeak missing")
}
