package notifybatch

import (
	"context"

	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
)

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, body string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ServiceDependencies struct {
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}

type Service struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, email: deps.Email, sms: deps.SMS, logger: deps.Logger}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

// Execute emails the batch summary when email is enabled, and sends an SMS
// alert only when every document of the batch failed.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	batch := input.BatchResult
	data := templateData(batch)
	out := &Output{Subject: summarize(batch)}

	recipients := input.Recipients
	if len(recipients) == 0 {
		recipients = s.config.Recipients
	}

	if s.config.EmailEnabled && s.email != nil && len(recipients) > 0 {
		id, err := s.email.SendEmail(ctx, recipients, out.Subject, renderTemplate(emailBody, data))
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailSent = true
		out.EmailMessageID = id
	}

	allFailed := batch.Succeeded == 0 && batch.Failed > 0
	if allFailed && s.config.SMSEnabled && s.sms != nil {
		id, err := s.sms.SendSMS(ctx, s.config.AlertPhone, renderTemplate(smsBody, data))
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sms", err)
		}
		out.SMSSent = true
		out.SMSMessageID = id
	}

	s.logger.Info("Batch notification sent", map[string]interface{}{
		"batchId":   batch.BatchID,
		"emailSent": out.EmailSent,
		"smsSent":   out.SMSSent,
	})
	return out, nil
}
