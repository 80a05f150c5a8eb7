package internal

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// newConfirmationToken returns 32 random bytes as hex.
func newConfirmationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func logAction(log *slog.Logger, action string, args ...any) {
	log.Info("action", append([]any{"action", action}, args...)...)
}
