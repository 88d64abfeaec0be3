package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	out   *ses.SendEmailOutput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestSESProvider_Send(t *testing.T) {
	fake := &fakeSES{out: &ses.SendEmailOutput{MessageId: aws.String("0100018f-abc")}}
	p := newSESProvider(fake, "alerts")

	receipt, err := p.Send(context.Background(), testMessage("user@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "0100018f-abc", receipt.MessageID)

	in := fake.input
	require.NotNil(t, in)
	assert.Equal(t, "alerts@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"user@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"alerts@example.com"}, in.ReplyToAddresses)
	assert.Equal(t, "Security Alert: Action Required on Acme", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "UTF-8", aws.ToString(in.Message.Subject.Charset))
	assert.Equal(t, "<p>html body</p>", aws.ToString(in.Message.Body.Html.Data))
	assert.Equal(t, "text body", aws.ToString(in.Message.Body.Text.Data))
	assert.Equal(t, "alerts", aws.ToString(in.ConfigurationSetName))

	require.Len(t, in.Tags, 1)
	assert.Equal(t, "List-Unsubscribe", aws.ToString(in.Tags[0].Name))
	assert.Equal(t, "mailto_alerts_example_com_subject_unsubscribe", aws.ToString(in.Tags[0].Value))
}

func TestSESProvider_SendWithoutOptionalFields(t *testing.T) {
	fake := &fakeSES{out: &ses.SendEmailOutput{MessageId: aws.String("id")}}
	p := newSESProvider(fake, "")

	msg := testMessage("user@example.com")
	msg.ReplyTo = ""
	msg.ListUnsubscribe = ""
	_, err := p.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.Nil(t, fake.input.ReplyToAddresses)
	assert.Nil(t, fake.input.Tags)
	assert.Nil(t, fake.input.ConfigurationSetName)
}

func TestSESProvider_APIError(t *testing.T) {
	fake := &fakeSES{err: &smithy.GenericAPIError{
		Code:    "MessageRejected",
		Message: "Email address is not verified.",
	}}
	p := newSESProvider(fake, "")

	receipt, err := p.Send(context.Background(), testMessage("user@example.com"))
	assert.Nil(t, receipt)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, BackendSES, sendErr.Provider)
	assert.Equal(t, "MessageRejected", sendErr.Code)
	assert.EqualError(t, sendErr.Err, "Email address is not verified.")
}

func TestSESProvider_TransportError(t *testing.T) {
	fake := &fakeSES{err: errors.New("dial tcp: i/o timeout")}
	p := newSESProvider(fake, "")

	_, err := p.Send(context.Background(), testMessage("user@example.com"))

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Empty(t, sendErr.Code)
	assert.ErrorContains(t, err, "i/o timeout")
}

func TestSESTagValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain-value_1", "plain-value_1"},
		{"<mailto:a@b.c?subject=unsubscribe>", "mailto_a_b_c_subject_unsubscribe"},
		{"spaces are bad", "spaces_are_bad"},
		{"", ""},
		{strings.Repeat("x", 300), strings.Repeat("x", 255)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sesTagValue(tt.in), tt.in)
	}
}
