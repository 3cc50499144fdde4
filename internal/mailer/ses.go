package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/linuxmathew/customer-success-workflow/internal/config"
	"github.com/linuxmathew/customer-success-workflow/internal/pkg/logger"
)

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	client *sesv2.Client
	region string
}

// NewSESSender creates an SES sender with static credentials.
func NewSESSender(ctx context.Context, cfg appconfig.SESConfig) (*SESSender, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESSender{
		client: sesv2.NewFromConfig(awsCfg),
		region: region,
	}, nil
}

// Send delivers a single email through AWS SES.
func (s *SESSender) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("SES client not initialized - check credentials")
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")},
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromAddress)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		log.Printf("[SES] Failed to send to %s: %v", logger.RedactEmail(msg.To), err)
		return &SendResult{Status: StatusFailed, Provider: "ses", Error: err.Error()}, err
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}

	log.Printf("[SES] Sent to %s (id: %s)", logger.RedactEmail(msg.To), messageID)

	return &SendResult{
		Status:    StatusSent,
		Provider:  "ses",
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	}, nil
}
