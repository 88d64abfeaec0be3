package notification

import (
	"fmt"
	"strings"
)

type smtpPreset struct {
	host       string
	port       int
	encryption string
}

// smtpPresets maps well-known mail services to their submission endpoints.
var smtpPresets = map[string]smtpPreset{
	"gmail":      {"smtp.gmail.com", 465, EncryptionSSLTLS},
	"googlemail": {"smtp.gmail.com", 465, EncryptionSSLTLS},
	"outlook":    {"smtp-mail.outlook.com", 587, EncryptionSTARTTLS},
	"hotmail":    {"smtp-mail.outlook.com", 587, EncryptionSTARTTLS},
	"office365":  {"smtp.office365.com", 587, EncryptionSTARTTLS},
	"yahoo":      {"smtp.mail.yahoo.com", 465, EncryptionSSLTLS},
	"icloud":     {"smtp.mail.me.com", 587, EncryptionSTARTTLS},
	"zoho":       {"smtp.zoho.com", 465, EncryptionSSLTLS},
	"fastmail":   {"smtp.fastmail.com", 465, EncryptionSSLTLS},
	"yandex":     {"smtp.yandex.ru", 465, EncryptionSSLTLS},
	"sendgrid":   {"smtp.sendgrid.net", 587, EncryptionSTARTTLS},
	"mailgun":    {"smtp.mailgun.org", 465, EncryptionSSLTLS},
	"mailjet":    {"in-v3.mailjet.com", 587, EncryptionSTARTTLS},
	"postmark":   {"smtp.postmarkapp.com", 2525, EncryptionSTARTTLS},
}

// resolve applies the service preset and defaults, then validates the result.
// Explicitly configured host, port and encryption take precedence over the preset.
func (c SMTPConfig) resolve() (SMTPConfig, error) {
	if c.Service != "" {
		preset, ok := smtpPresets[strings.ToLower(strings.TrimSpace(c.Service))]
		if !ok {
			return c, fmt.Errorf("unknown SMTP service %q", c.Service)
		}
		if c.Host == "" {
			c.Host = preset.host
		}
		if c.Port == 0 {
			c.Port = preset.port
		}
		if c.Encryption == "" {
			c.Encryption = preset.encryption
		}
	}

	if c.Host == "" {
		return c, fmt.Errorf("SMTP host is required (set SMTP_HOST or SMTP_SERVICE)")
	}
	switch c.Encryption {
	case "":
		c.Encryption = EncryptionSTARTTLS
	case EncryptionNone, EncryptionSTARTTLS, EncryptionSSLTLS:
	default:
		return c, fmt.Errorf("unknown SMTP encryption %q (want none, starttls or ssl_tls)", c.Encryption)
	}
	if c.Port == 0 {
		c.Port = 587
		if c.Encryption == EncryptionSSLTLS {
			c.Port = 465
		}
	}
	return c, nil
}
