package notification

import "time"

// Supported values for BackendConfig.Kind.
const (
	BackendSES    = "ses"
	BackendSMTP   = "smtp"
	BackendGmail  = "gmail"
	BackendResend = "resend"
	BackendLog    = "log"
)

// Supported values for SMTPConfig.Encryption.
const (
	EncryptionNone     = "none"
	EncryptionSTARTTLS = "starttls"
	EncryptionSSLTLS   = "ssl_tls"
)

// BackendConfig selects and configures the single active delivery backend.
type BackendConfig struct {
	Kind   string
	SES    SESConfig
	SMTP   SMTPConfig
	Gmail  GmailConfig
	Resend ResendConfig
}

// SESConfig holds the parameters for the AWS SES provider.
// Empty credentials fall back to the default AWS credential chain.
type SESConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	Endpoint         string
	ConfigurationSet string
}

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Service    string        `json:"service"`
	Host       string        `json:"host"`
	Port       int           `json:"port"`
	Username   string        `json:"username"`
	Password   string        `json:"password"`
	Encryption string        `json:"encryption"` // "none", "starttls", "ssl_tls"
	Timeout    time.Duration `json:"timeout"`
}

// GmailConfig holds OAuth2 client credentials and a long-lived refresh token
// authorized for the gmail.send scope.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// ResendConfig holds the Resend API key.
type ResendConfig struct {
	APIKey string
}
