package build

import "fmt"

// These variables are set at build time via -ldflags.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// ServiceName identifies this binary in telemetry, mail headers and logs.
const ServiceName = "alertmail"

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// UserAgent is sent as the X-Mailer/User-Agent of outgoing mail.
func UserAgent() string {
	return ServiceName + "/" + Version
}
