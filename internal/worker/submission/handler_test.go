package submission

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-reconciler/internal/common/config"
	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/engine"
	"intake-reconciler/internal/notify"
	"intake-reconciler/internal/schema"
	"intake-reconciler/internal/store"
)

type mockSES struct {
	calls []*ses.SendEmailInput
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	calls []*sns.PublishInput
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	return &sns.PublishOutput{}, nil
}

func newTestHandler(t *testing.T) (*Handler, *store.MemoryStore, *mockSES) {
	t.Helper()

	mem := store.NewMemoryStore()
	log := logger.NewNoOpLogger()
	eng := engine.New(schema.Default(), mem, log)

	var notifCfg config.NotificationConfig
	notifCfg.Email.Enabled = true
	notifCfg.Email.FromEmail = "noreply@intake.example.com"
	notifCfg.Operator.Email = "ops@intake.example.com"

	sesMock := &mockSES{}
	notifier := notify.NewNotifier(notifCfg, sesMock, &mockSNS{}, log)

	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Engine:       eng,
		Records:      mem,
		Notifier:     notifier,
		Logger:       log,
	})
	require.NoError(t, err)

	return h, mem, sesMock
}

func TestExecute_CreatesLeadAndNotifies(t *testing.T) {
	h, mem, sesMock := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		KindID: schema.KindInfoRequest,
		Fields: map[string]string{
			"email":      "jane@example.com",
			"first_name": "Jane",
			"last_name":  "Doe",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "created", output.Action)
	assert.Equal(t, "jane@example.com", output.Key)
	assert.NotEmpty(t, output.RecordID)
	assert.False(t, output.Rejected)
	assert.Equal(t, 1, mem.Len())

	// Welcome email plus operator alert.
	assert.Len(t, sesMock.calls, 2)
}

func TestExecute_UpdateIsSilent(t *testing.T) {
	h, _, sesMock := newTestHandler(t)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Input{
		KindID: schema.KindInfoRequest,
		Fields: map[string]string{
			"email":      "jane@example.com",
			"first_name": "Jane",
			"last_name":  "Doe",
		},
	})
	require.NoError(t, err)
	require.Len(t, sesMock.calls, 2)

	output, err := h.Execute(ctx, &Input{
		KindID: schema.KindServiceAgreement,
		Fields: map[string]string{
			"email":          "jane@example.com",
			"street_address": "12 Main St",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "updated", output.Action)
	assert.Equal(t, "Active Client", output.Status)
	assert.Len(t, sesMock.calls, 2, "updates must not notify")
}

func TestExecute_RejectedSubmissionCompletesWithErrors(t *testing.T) {
	h, mem, sesMock := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		KindID: schema.KindInfoRequest,
		Fields: map[string]string{
			"first_name": "Jane",
		},
	})
	require.NoError(t, err)

	assert.True(t, output.Rejected)
	assert.Equal(t, "rejected", output.Action)
	assert.NotEmpty(t, output.Errors)
	assert.Equal(t, 0, mem.Len())
	assert.Empty(t, sesMock.calls)
}

func TestExecute_UnknownKindFails(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{
		KindID: "mystery_form",
		Fields: map[string]string{"email": "jane@example.com"},
	})
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeUnknownFormKind), extractErrorCode(err))
}

func TestParseInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Variables: `{"kindId":"info_request","fields":{"email":"jane@example.com"}}`,
	}}

	input, err := h.parseInput(job)
	require.NoError(t, err)
	assert.Equal(t, schema.KindInfoRequest, input.KindID)
	assert.Equal(t, "jane@example.com", input.Fields["email"])
}

func TestParseInput_Invalid(t *testing.T) {
	h, _, _ := newTestHandler(t)

	cases := []struct {
		name      string
		variables string
	}{
		{"malformed json", `{"kindId":`},
		{"missing kind", `{"fields":{"email":"jane@example.com"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: tc.variables}}
			_, err := h.parseInput(job)
			require.Error(t, err)
			assert.Equal(t, string(errors.ErrCodeInputParsingFailed), extractErrorCode(err))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.MaxJobsActive = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
