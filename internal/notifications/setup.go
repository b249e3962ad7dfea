package notifications

import (
	"log/slog"

	"github.com/mihuella/pettrack/internal/config"
	"github.com/mihuella/pettrack/internal/tracking"
)

// AlerterFromConfig builds the local alert sink. Expo push is always on;
// mail is added when SMTP is configured. Stale push tokens are cleared
// through tokens.
func AlerterFromConfig(cfg *config.Config, contacts ContactLookup, tokens PushTokenStore, logger *slog.Logger) *PushAlerter {
	expo := NewExpoClient(cfg.ExpoPushURL, cfg.ExpoAccessToken, nil)

	var mailCfg *MailConfig
	if cfg.MailEnabled() {
		mailCfg = &MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}
	return NewPushAlerter(contacts, tokens, expo, mailCfg, logger)
}

// TrackerConfigFrom maps the detection settings.
func TrackerConfigFrom(cfg *config.Config) tracking.TrackerConfig {
	return tracking.TrackerConfig{
		MinDistanceMeters: cfg.MinDistanceMeters,
		AnnounceInitial:   cfg.AnnounceInitialSnapshot,
	}
}
