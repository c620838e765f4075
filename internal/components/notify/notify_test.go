package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	require.IsType(t, Discard{}, FromConfig(SMTPConfig{}))
	require.IsType(t, Discard{}, FromConfig(SMTPConfig{Host: "smtp.example.com"}))

	n := FromConfig(SMTPConfig{
		Host: "smtp.example.com",
		From: "schedule@example.com",
		To:   []string{"ops@example.com"},
	})
	require.IsType(t, SMTP{}, n)
	require.Equal(t, 587, n.(SMTP).cfg.Port)
}
