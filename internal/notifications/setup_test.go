package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihuella/pettrack/internal/config"
)

func TestAlerterFromConfig(t *testing.T) {
	cfg := &config.Config{ExpoPushURL: DefaultExpoPushURL, MinDistanceMeters: 750, AnnounceInitialSnapshot: true}

	a := AlerterFromConfig(cfg, &staticContacts{}, nil, discardLogger())
	require.NotNil(t, a)
	assert.Nil(t, a.mail)

	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587
	a = AlerterFromConfig(cfg, &staticContacts{}, nil, discardLogger())
	require.NotNil(t, a.mail)
	assert.Equal(t, "smtp.example.com", a.mail.Host)

	tc := TrackerConfigFrom(cfg)
	assert.Equal(t, 750.0, tc.MinDistanceMeters)
	assert.True(t, tc.AnnounceInitial)
}
