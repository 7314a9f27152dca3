package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESMailer sends email through AWS SESv2.
type SESMailer struct {
	client *sesv2.Client
	from   string
}

// NewSESMailer loads the default AWS credential chain for the given region.
func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("mailer.NewSESMailer: load aws config: %w", err)
	}
	return &SESMailer{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

func (m *SESMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mailer.SESMailer.Send: %w", err)
	}
	return nil
}
