package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/logger"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyRoundTrip(t *testing.T) {
	service := NewSignatureService(logger.NoOpLogFactory)

	secrets := []string{"s", "a much longer secret with spaces", ""}
	payloads := [][]byte{[]byte("{}"), []byte(`{"ref":"refs/heads/main"}`), {}, {0x00, 0xff, 0x10}}
	for _, secret := range secrets {
		for _, payload := range payloads {
			require.True(t, service.Verify(secret, payload, sign(secret, payload)))
		}
	}
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	service := NewSignatureService(logger.NoOpLogFactory)
	secret := "s"
	payload := []byte(`{"ref":"refs/heads/main"}`)
	header := sign(secret, payload)

	// Flip one bit of every hex digit position in turn
	raw, err := hex.DecodeString(header[len("sha256="):])
	require.NoError(t, err)
	for i := range raw {
		flipped := make([]byte, len(raw))
		copy(flipped, raw)
		flipped[i] ^= 0x01
		require.False(t, service.Verify(secret, payload, "sha256="+hex.EncodeToString(flipped)))
	}
}

func TestVerifyRejectsMalformedHeaders(t *testing.T) {
	service := NewSignatureService(logger.NoOpLogFactory)
	payload := []byte("{}")
	valid := sign("s", payload)

	require.False(t, service.Verify("s", payload, ""))
	require.False(t, service.Verify("s", payload, "sha256="))
	require.False(t, service.Verify("s", payload, "sha1="+valid[len("sha256="):]))
	require.False(t, service.Verify("s", payload, valid[len("sha256="):]))
	require.False(t, service.Verify("s", payload, "sha256=nothex"))
	require.False(t, service.Verify("wrong-secret", payload, valid))
}
