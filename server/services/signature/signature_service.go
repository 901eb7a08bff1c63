package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tinycd/tinycd/common/logger"
)

const signaturePrefix = "sha256="

type SignatureService struct {
	logger.Log
}

func NewSignatureService(logFactory logger.LogFactory) *SignatureService {
	return &SignatureService{
		Log: logFactory("SignatureService"),
	}
}

// Verify returns true iff signatureHeader is "sha256=" followed by the hex
// HMAC-SHA256 of payload under secret. The MAC comparison is constant-time.
// Any malformed header yields false.
func (s *SignatureService) Verify(secret string, payload []byte, signatureHeader string) bool {
	if !strings.HasPrefix(signatureHeader, signaturePrefix) {
		return false
	}
	provided, err := hex.DecodeString(signatureHeader[len(signaturePrefix):])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(provided, mac.Sum(nil))
}
