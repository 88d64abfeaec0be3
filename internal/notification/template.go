package notification

import (
	"bytes"
	"html/template"
	texttemplate "text/template"
)

// SubjectPrefix is prepended to the platform name in every alert subject.
const SubjectPrefix = "Security Alert: Action Required on "

// alertHTMLTmpl is the HTML body of a security alert.
// {{.Platform}} and {{.Link}} are auto-escaped by html/template; a link with
// an unsafe scheme (javascript:, data:) is rendered as "#ZgotmplZ".
var alertHTMLTmpl = template.Must(template.New("alert.html").Parse(
	`<div style="font-family:sans-serif;max-width:500px;margin:auto;padding:20px;border:1px solid #eee;border-radius:8px;">
  <h2 style="color:#3b82f6;">Security Alert for {{.Platform}}</h2>
  <p>Dear user,</p>
  <p>We detected an attempt to access your account on <b>{{.Platform}}</b>. If this was you, please confirm your data by clicking the link below. If not, we recommend changing your password immediately.</p>
  <a href="{{.Link}}" style="display:inline-block;margin:16px 0;padding:10px 20px;background:#3b82f6;color:#fff;text-decoration:none;border-radius:4px;">Confirm Your Data</a>
  <p>If you have any questions, contact our support team.</p>
  <p style="font-size:12px;color:#888;">This is an automated message. Please do not reply.</p>
</div>`))

var alertTextTmpl = texttemplate.Must(texttemplate.New("alert.txt").Parse(
	`Dear user,

We detected an attempt to access your account on {{.Platform}}.
If this was you, please confirm your data by clicking the following link: {{.Link}}
If not, we recommend changing your password immediately.

If you have any questions, contact our support team.

This is an automated message. Please do not reply.`))

// Alert is a rendered security alert. Only the recipient varies between the
// copies sent for one request, so it is rendered once and addressed per send.
type Alert struct {
	Platform string
	Link     string
	Subject  string
	HTML     string
	Text     string
}

// RenderAlert renders the subject, HTML and plain-text bodies for platform and link.
func RenderAlert(platform, link string) (*Alert, error) {
	data := struct{ Platform, Link string }{platform, link}

	var html bytes.Buffer
	if err := alertHTMLTmpl.Execute(&html, data); err != nil {
		return nil, err
	}
	var text bytes.Buffer
	if err := alertTextTmpl.Execute(&text, data); err != nil {
		return nil, err
	}

	return &Alert{
		Platform: platform,
		Link:     link,
		Subject:  buildSubject(platform),
		HTML:     html.String(),
		Text:     text.String(),
	}, nil
}

// Message addresses the alert to a single recipient.
func (a *Alert) Message(from Sender, to string) Message {
	return Message{
		To:              to,
		From:            from.Address,
		ReplyTo:         from.Address,
		Subject:         a.Subject,
		HTML:            a.HTML,
		Text:            a.Text,
		ListUnsubscribe: from.ListUnsubscribe(),
	}
}

// buildSubject prepends the standard prefix to the platform name.
func buildSubject(platform string) string {
	return SubjectPrefix + platform
}
