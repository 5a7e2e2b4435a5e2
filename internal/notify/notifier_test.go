package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-reconciler/internal/common/config"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/models"
	"intake-reconciler/internal/schema"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	Calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Calls = append(m.Calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	Calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.Calls = append(m.Calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

func testNotificationConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "noreply@intake.example.com"
	cfg.SMS.Enabled = true
	cfg.Operator.Email = "ops@intake.example.com"
	cfg.Operator.Phone = "+15555550100"
	return cfg
}

func newLeadRecord() *models.ClientRecord {
	return &models.ClientRecord{
		ID:  "rec-1",
		Key: "jane@example.com",
		Attributes: map[string]interface{}{
			"first_name": "Jane",
			"last_name":  "Doe",
		},
		Status: "Lead - Info Requested",
	}
}

func createdLeadOutcome() *models.Outcome {
	return &models.Outcome{
		Key:       "jane@example.com",
		RecordID:  "rec-1",
		KindID:    schema.KindInfoRequest,
		Action:    models.ActionCreated,
		NewStatus: "Lead - Info Requested",
	}
}

func TestNotifyOutcome_NewLeadSendsWelcomeAndOperatorAlert(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := NewNotifier(testNotificationConfig(), sesMock, snsMock, logger.NewNoOpLogger())

	n.NotifyOutcome(context.Background(), createdLeadOutcome(), newLeadRecord())

	require.Len(t, sesMock.Calls, 2)

	welcome := sesMock.Calls[0]
	assert.Equal(t, []string{"jane@example.com"}, welcome.Destination.ToAddresses)
	assert.Equal(t, "noreply@intake.example.com", *welcome.Source)
	assert.Contains(t, *welcome.Message.Body.Text.Data, "Jane")

	alert := sesMock.Calls[1]
	assert.Equal(t, []string{"ops@intake.example.com"}, alert.Destination.ToAddresses)
	assert.Contains(t, *alert.Message.Subject.Data, "Jane Doe")
	assert.Contains(t, *alert.Message.Body.Text.Data, "jane@example.com")

	require.Len(t, snsMock.Calls, 1)
	assert.Equal(t, "+15555550100", *snsMock.Calls[0].PhoneNumber)
}

func TestNotifyOutcome_UpdateIsSilent(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := NewNotifier(testNotificationConfig(), sesMock, snsMock, logger.NewNoOpLogger())

	outcome := createdLeadOutcome()
	outcome.Action = models.ActionUpdated

	n.NotifyOutcome(context.Background(), outcome, newLeadRecord())

	assert.Empty(t, sesMock.Calls)
	assert.Empty(t, snsMock.Calls)
}

func TestNotifyOutcome_OtherKindCreateIsSilent(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := NewNotifier(testNotificationConfig(), sesMock, snsMock, logger.NewNoOpLogger())

	outcome := createdLeadOutcome()
	outcome.KindID = schema.KindClientFeedback

	n.NotifyOutcome(context.Background(), outcome, newLeadRecord())

	assert.Empty(t, sesMock.Calls)
	assert.Empty(t, snsMock.Calls)
}

func TestNotifyOutcome_EmailDisabledSkipsSES(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.Email.Enabled = false

	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := NewNotifier(cfg, sesMock, snsMock, logger.NewNoOpLogger())

	n.NotifyOutcome(context.Background(), createdLeadOutcome(), newLeadRecord())

	assert.Empty(t, sesMock.Calls)
	require.Len(t, snsMock.Calls, 1, "SMS alert still goes out")
}

func TestNotifyOutcome_SendFailureDoesNotPanicOrBlock(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}
	snsMock := &MockSNSService{}
	n := NewNotifier(testNotificationConfig(), sesMock, snsMock, logger.NewNoOpLogger())

	n.NotifyOutcome(context.Background(), createdLeadOutcome(), newLeadRecord())

	// Welcome and operator alert each attempted despite failures.
	assert.Len(t, sesMock.Calls, 2)
}

func TestRenderTemplate_MissingPlaceholdersDropped(t *testing.T) {
	out := renderTemplate("Hi {{first_name}} {{missing}}!", map[string]interface{}{
		"first_name": "Jane",
	})
	assert.Equal(t, "Hi Jane !", out)
}
