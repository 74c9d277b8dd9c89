package notifybatch

import "ewaybill-workers/internal/models"

type Input struct {
	BatchResult models.BatchResult `json:"batchResult"`
	// Recipients overrides the configured email recipients.
	Recipients []string `json:"recipients,omitempty"`
}

type Output struct {
	Subject        string `json:"subject"`
	EmailSent      bool   `json:"emailSent"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSSent        bool   `json:"smsSent"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
}
