package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct{ mock.Mock }

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSESClient_SendEmail(t *testing.T) {
	api := new(mockSES)
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "ops@example.com" &&
			len(in.Destination.ToAddresses) == 2 &&
			aws.ToString(in.Message.Subject.Data) == "Bulk extension completed"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	client := NewSESClientWithAPI(api, "ops@example.com")
	id, err := client.SendEmail(context.Background(), []string{"a@example.com", "b@example.com"}, "Bulk extension completed", "body")

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_PropagatesError(t *testing.T) {
	api := new(mockSES)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewSESClientWithAPI(api, "ops@example.com").SendEmail(context.Background(), []string{"a@example.com"}, "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		_, hasSender := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return aws.ToString(in.PhoneNumber) == "+919800000000" && hasSender
	})).Return(&sns.PublishOutput{MessageId: aws.String("sms-1")}, nil)

	id, err := NewSNSClientWithAPI(api, "EWBOPS").SendSMS(context.Background(), "+919800000000", "All eWay Bills failed to extend")

	require.NoError(t, err)
	assert.Equal(t, "sms-1", id)
	api.AssertExpectations(t)
}
