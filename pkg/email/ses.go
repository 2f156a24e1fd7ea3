package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/angelmondragon/kitstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

const charset = "UTF-8"

var errSenderNotConfigured = errors.New("email sender address not configured")

// Message is a rendered email ready to send.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends mail through Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
}

// NewSESSender loads the default AWS credential chain for the configured region.
func NewSESSender(ctx context.Context, awsCfg config.AWSConfig, cfg config.EmailConfig) (*SESSender, error) {
	if !cfg.Enabled() {
		return nil, errSenderNotConfigured
	}
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sdkCfg, err := awsconfig.LoadDefaultConfig(loadCtx, awsconfig.WithRegion(awsCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESSender(ses.NewFromConfig(sdkCfg), cfg), nil
}

func newSESSender(client sesAPI, cfg config.EmailConfig) *SESSender {
	from := strings.TrimSpace(cfg.FromAddress)
	if name := strings.TrimSpace(cfg.FromName); name != "" {
		from = fmt.Sprintf("%s <%s>", name, from)
	}
	return &SESSender{client: client, from: from}
}

// Send delivers msg as a multipart HTML + text email.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}

	body := &sestypes.Body{}
	if msg.HTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)}
	}
	if msg.Text != "" {
		body.Text = &sestypes.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
			Body:    body,
		},
	}
	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	return nil
}
