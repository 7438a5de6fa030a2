package main

import (
	"chat-threads/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInteractionLine(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	key := []byte("identity-key-A")

	t.Run("invalid key message shows the key fingerprint", func(t *testing.T) {
		req := require.New(t)
		line := interactionLine(domain.Interaction{
			Timestamp:   at,
			Direction:   domain.Incoming,
			Kind:        domain.KindInvalidIdentityKey,
			IdentityKey: key,
		})

		req.Contains(line, "2024-06-01 09:00:00")
		req.Contains(line, "changed safety number")
		req.Contains(line, domain.KeyFingerprint(key))
		req.NotContains(line, string(key))
	})

	t.Run("text message carries no fingerprint", func(t *testing.T) {
		req := require.New(t)
		line := interactionLine(domain.Interaction{
			Timestamp:   at,
			Kind:        domain.KindText,
			Body:        "hello",
			IdentityKey: key,
		})

		req.Contains(line, "hello")
		req.NotContains(line, domain.KeyFingerprint(key))
	})
}
