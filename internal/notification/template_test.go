package notification_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/notification"
)

func TestRenderAlert(t *testing.T) {
	alert, err := notification.RenderAlert("Acme", "https://x/y")
	require.NoError(t, err)

	assert.Equal(t, "Security Alert: Action Required on Acme", alert.Subject)
	assert.Contains(t, alert.HTML, "Security Alert for Acme")
	assert.Contains(t, alert.HTML, "<b>Acme</b>")
	assert.Contains(t, alert.HTML, `href="https://x/y"`)
	assert.Contains(t, alert.HTML, "Confirm Your Data")
	assert.Contains(t, alert.Text, "We detected an attempt to access your account on Acme.")
	assert.Contains(t, alert.Text, "clicking the following link: https://x/y")
	assert.Contains(t, alert.Text, "This is an automated message. Please do not reply.")
}

func TestRenderAlert_EscapesHTML(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		link     string
		contains []string
		excludes []string
	}{
		{
			name:     "markup in platform",
			platform: `<script>alert(1)</script>`,
			link:     "https://example.com",
			contains: []string{"&lt;script&gt;"},
			excludes: []string{"<script>"},
		},
		{
			name:     "javascript link",
			platform: "Acme",
			link:     "javascript:alert(1)",
			contains: []string{`href="#ZgotmplZ"`},
			excludes: []string{"javascript:alert"},
		},
		{
			name:     "quote in link",
			platform: "Acme",
			link:     `https://example.com/"onmouseover="x`,
			excludes: []string{`"onmouseover="`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, err := notification.RenderAlert(tt.platform, tt.link)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, alert.HTML, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, alert.HTML, s)
			}
		})
	}
}

func TestRenderAlert_TextIsVerbatim(t *testing.T) {
	alert, err := notification.RenderAlert("A&B <Corp>", "https://x/y?a=1&b=2")
	require.NoError(t, err)

	assert.Contains(t, alert.Text, "A&B <Corp>")
	assert.Contains(t, alert.Text, "https://x/y?a=1&b=2")
	assert.Equal(t, "Security Alert: Action Required on A&B <Corp>", alert.Subject)
}

func TestAlert_Message(t *testing.T) {
	alert, err := notification.RenderAlert("Acme", "https://x/y")
	require.NoError(t, err)

	msg := alert.Message(notification.Sender{Address: "alerts@example.com"}, "user@example.com")

	assert.Equal(t, "user@example.com", msg.To)
	assert.Equal(t, "alerts@example.com", msg.From)
	assert.Equal(t, "alerts@example.com", msg.ReplyTo)
	assert.Equal(t, alert.Subject, msg.Subject)
	assert.Equal(t, alert.HTML, msg.HTML)
	assert.Equal(t, alert.Text, msg.Text)
	assert.Equal(t, "<mailto:alerts@example.com?subject=unsubscribe>", msg.ListUnsubscribe)
}

func TestSender_ListUnsubscribe_Empty(t *testing.T) {
	assert.Empty(t, notification.Sender{}.ListUnsubscribe())
}

func TestSubjectPrefix(t *testing.T) {
	assert.True(t, strings.HasSuffix(notification.SubjectPrefix, " on "))
}
