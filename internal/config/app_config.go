package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/shaharia-lab/alertmail/internal/notification"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 3000.
	Port int `envconfig:"PORT" default:"3000"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFile switches logging to a size-rotated JSON file when set.
	LogFile string `envconfig:"LOG_FILE"`

	// MailBackend selects the delivery backend: ses, smtp, gmail, resend or log.
	MailBackend string `envconfig:"MAIL_BACKEND" default:"ses"`

	// MailFrom is the sender address. Falls back to SES_FROM, then SMTP_USERNAME.
	MailFrom string `envconfig:"MAIL_FROM"`
	SESFrom  string `envconfig:"SES_FROM"`

	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	// SESEndpoint overrides the SES endpoint, e.g. for localstack.
	SESEndpoint         string `envconfig:"SES_ENDPOINT"`
	SESConfigurationSet string `envconfig:"SES_CONFIGURATION_SET"`

	// SMTPService names a well-known provider preset (gmail, outlook, ...).
	// Explicit SMTP_HOST/SMTP_PORT/SMTP_ENCRYPTION values win over the preset.
	SMTPService    string `envconfig:"SMTP_SERVICE"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPEncryption string `envconfig:"SMTP_ENCRYPTION"`

	GmailClientID     string `envconfig:"GMAIL_CLIENT_ID"`
	GmailClientSecret string `envconfig:"GMAIL_CLIENT_SECRET"`
	GmailRefreshToken string `envconfig:"GMAIL_REFRESH_TOKEN"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`

	// SendTimeout bounds every individual recipient send.
	SendTimeout time.Duration `envconfig:"SEND_TIMEOUT" default:"30s"`

	// MaxConcurrentSends bounds in-flight sends per request; 0 means unbounded.
	MaxConcurrentSends int `envconfig:"MAX_CONCURRENT_SENDS" default:"0"`

	// CORSAllowedOrigins is a comma separated list of origins allowed to call the API.
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// OTLPEndpoint enables OTLP/gRPC export of traces, metrics and logs when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// DeliveryLogDB is the SQLite file recording every delivery outcome.
	// Empty disables the delivery log and GET /deliveries.
	DeliveryLogDB string `envconfig:"DELIVERY_LOG_DB"`

	// DeliveryLogRetention is how long delivery records are kept.
	DeliveryLogRetention time.Duration `envconfig:"DELIVERY_LOG_RETENTION" default:"720h"`

	// DeliveryLogPruneSchedule is a duration or cron expression for the retention job.
	DeliveryLogPruneSchedule string `envconfig:"DELIVERY_LOG_PRUNE_SCHEDULE" default:"1h"`
}

// DefaultPort is the HTTP port used when PORT is unset.
const DefaultPort = 3000

// Load reads AppConfig from environment variables using envconfig.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Resolve the effective sender:
	//   1. MAIL_FROM
	//   2. SES_FROM
	//   3. SMTP_USERNAME (relays usually require From to match the login)
	if c.MailFrom == "" {
		if c.SESFrom != "" {
			c.MailFrom = c.SESFrom
		} else {
			c.MailFrom = c.SMTPUsername
		}
	}
	c.MailBackend = strings.ToLower(strings.TrimSpace(c.MailBackend))

	if c.SendTimeout <= 0 {
		return nil, fmt.Errorf("loading config: SEND_TIMEOUT must be positive, got %s", c.SendTimeout)
	}
	if c.DeliveryLogDB != "" && c.DeliveryLogRetention <= 0 {
		return nil, fmt.Errorf("loading config: DELIVERY_LOG_RETENTION must be positive, got %s", c.DeliveryLogRetention)
	}
	if c.MaxConcurrentSends < 0 {
		return nil, fmt.Errorf("loading config: MAX_CONCURRENT_SENDS must not be negative, got %d", c.MaxConcurrentSends)
	}

	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AllowedOrigins splits CORSAllowedOrigins into a trimmed, non-empty list.
func (c *AppConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Backend returns the delivery backend configuration for notification.NewProvider.
func (c *AppConfig) Backend() notification.BackendConfig {
	return notification.BackendConfig{
		Kind: c.MailBackend,
		SES: notification.SESConfig{
			Region:           c.AWSRegion,
			AccessKeyID:      c.AWSAccessKeyID,
			SecretAccessKey:  c.AWSSecretAccessKey,
			Endpoint:         c.SESEndpoint,
			ConfigurationSet: c.SESConfigurationSet,
		},
		SMTP: notification.SMTPConfig{
			Service:    c.SMTPService,
			Host:       c.SMTPHost,
			Port:       c.SMTPPort,
			Username:   c.SMTPUsername,
			Password:   c.SMTPPassword,
			Encryption: c.SMTPEncryption,
			Timeout:    c.SendTimeout,
		},
		Gmail: notification.GmailConfig{
			ClientID:     c.GmailClientID,
			ClientSecret: c.GmailClientSecret,
			RefreshToken: c.GmailRefreshToken,
		},
		Resend: notification.ResendConfig{
			APIKey: c.ResendAPIKey,
		},
	}
}

// Sender returns the sender identity applied to every outgoing alert.
func (c *AppConfig) Sender() notification.Sender {
	return notification.Sender{Address: c.MailFrom}
}
