package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
)

const (
	sesCharset         = "UTF-8"
	sesMaxTagValueLen  = 255
	listUnsubscribeTag = "List-Unsubscribe"
)

// sesAPI is the subset of the SES client used by SESProvider.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider delivers alerts through the AWS SES SendEmail API.
type SESProvider struct {
	client           sesAPI
	configurationSet string
}

// NewSESProvider loads AWS configuration once. Static credentials are used
// when both keys are set; otherwise the default credential chain applies.
func NewSESProvider(ctx context.Context, cfg SESConfig) (*SESProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newSESProvider(client, cfg.ConfigurationSet), nil
}

func newSESProvider(client sesAPI, configurationSet string) *SESProvider {
	return &SESProvider{client: client, configurationSet: configurationSet}
}

// Name returns the provider identifier.
func (p *SESProvider) Name() string { return BackendSES }

// Send delivers msg with a single SendEmail call.
func (p *SESProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	input := &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(sesCharset)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(sesCharset)},
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String(sesCharset)},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	// SendEmail cannot set arbitrary headers, so the unsubscribe hint travels
	// as a message tag.
	if msg.ListUnsubscribe != "" {
		input.Tags = []types.MessageTag{{
			Name:  aws.String(listUnsubscribeTag),
			Value: aws.String(sesTagValue(msg.ListUnsubscribe)),
		}}
	}
	if p.configurationSet != "" {
		input.ConfigurationSetName = aws.String(p.configurationSet)
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, &SendError{Provider: BackendSES, Code: apiErr.ErrorCode(), Err: errors.New(apiErr.ErrorMessage())}
		}
		return nil, &SendError{Provider: BackendSES, Err: err}
	}

	receipt := &Receipt{MessageID: aws.ToString(out.MessageId)}
	if reqID, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		receipt.Response = "request " + reqID
	}
	return receipt, nil
}

// sesTagValue maps v onto the SES tag alphabet: ASCII letters, digits,
// '_' and '-', at most 255 characters.
func sesTagValue(v string) string {
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == '<' || r == '>':
		default:
			b.WriteByte('_')
		}
		if b.Len() == sesMaxTagValueLen {
			break
		}
	}
	return b.String()
}
