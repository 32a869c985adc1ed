package factory

import (
	"context"
	"errors"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/mkwiatek/mailfan/internal/config"
	mailservice "github.com/mkwiatek/mailfan/internal/mailservice/mail"
	"github.com/mkwiatek/mailfan/internal/mailservice/types"
)

// NewEmailService builds the notification sender for the configured report
// provider. Provider "none" (or empty) returns nil with no error, which
// disables completion reports.
func NewEmailService(ctx context.Context, cfg appconfig.ReportConfig) (types.EmailSender, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "ses":
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.AWSRegion),
		}

		accessKeyId := os.Getenv("AWS_ACCESS_KEY_ID")
		secretAccessKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if accessKeyId != "" && secretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKeyId, secretAccessKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}

		return mailservice.NewSESEmailService(awsCfg)
	case "smtp", "standard":
		return mailservice.NewStandardMailService(&types.StandardSenderConfig{
			SmtpHost:     cfg.SMTPHost,
			SmtpPort:     cfg.SMTPPort,
			SmtpUsername: cfg.SMTPUsername,
			SmtpPassword: cfg.SMTPPassword,
		})
	default:
		return nil, errors.New("unknown report provider: " + cfg.Provider)
	}
}
