package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("S-1", "S-1/statement_S-1_20260830.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	studentNumber, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "S-1", studentNumber)
	require.Equal(t, "S-1/statement_S-1_20260830.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("S-1", "S-1/statement.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	studentNumber, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "S-1", studentNumber)
	require.Equal(t, "S-1/statement.csv", path)
}

func TestSignedURLSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("S-1", "S-1/statement.csv")
	require.NoError(t, err)

	forged := "S-2" + token[len("S-1"):]
	_, _, _, err = signer.Parse(forged, false)
	require.Error(t, err)
}
