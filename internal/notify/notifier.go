// Package notify sends the side-channel messages a reconciliation can
// trigger: a welcome email to a newly created lead and an alert to the
// operator. Notifications are best effort; a send failure never fails the
// reconciliation that triggered it.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"intake-reconciler/internal/common/config"
	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/models"
	"intake-reconciler/internal/schema"
)

// Interfaces for mocking the AWS clients in tests.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

const (
	templateWelcome       = "lead_welcome"
	templateOperatorAlert = "operator_alert"
)

type Notifier struct {
	config    config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	templates map[string]map[string]string
}

func NewNotifier(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
		templates: defaultTemplates(),
	}
}

// NotifyOutcome fires the notifications an outcome warrants. Only a freshly
// created lead from the intake form triggers anything; updates and later
// forms are silent.
func (n *Notifier) NotifyOutcome(ctx context.Context, outcome *models.Outcome, rec *models.ClientRecord) {
	if outcome.Action != models.ActionCreated || outcome.KindID != schema.KindInfoRequest {
		return
	}

	if err := n.sendWelcome(ctx, rec); err != nil {
		n.logger.Error("welcome email failed", map[string]interface{}{
			"key":   rec.Key,
			"error": err.Error(),
		})
	}
	if err := n.alertOperator(ctx, rec); err != nil {
		n.logger.Error("operator alert failed", map[string]interface{}{
			"key":   rec.Key,
			"error": err.Error(),
		})
	}
}

func (n *Notifier) sendWelcome(ctx context.Context, rec *models.ClientRecord) error {
	if !n.config.Email.Enabled {
		return nil
	}

	data := templateData(rec)
	tmpl := n.templates[templateWelcome]
	subject := renderTemplate(tmpl["subject"], data)
	body := renderTemplate(tmpl["body"], data)

	if err := n.sendEmail(ctx, rec.Key, subject, body); err != nil {
		return errors.NewNotificationSendFailedError("email", err)
	}

	n.logger.Info("welcome email sent", map[string]interface{}{"key": rec.Key})
	return nil
}

func (n *Notifier) alertOperator(ctx context.Context, rec *models.ClientRecord) error {
	data := templateData(rec)
	tmpl := n.templates[templateOperatorAlert]
	subject := renderTemplate(tmpl["subject"], data)
	body := renderTemplate(tmpl["body"], data)

	if n.config.Email.Enabled && n.config.Operator.Email != "" {
		if err := n.sendEmail(ctx, n.config.Operator.Email, subject, body); err != nil {
			return errors.NewNotificationSendFailedError("email", err)
		}
	}

	if n.config.SMS.Enabled && n.config.Operator.Phone != "" {
		if err := n.sendSMS(ctx, n.config.Operator.Phone, body); err != nil {
			return errors.NewNotificationSendFailedError("sms", err)
		}
	}

	n.logger.Info("operator alerted", map[string]interface{}{"key": rec.Key})
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func templateData(rec *models.ClientRecord) map[string]interface{} {
	data := map[string]interface{}{
		"email":  rec.Key,
		"status": rec.Status,
	}
	for k, v := range rec.Attributes {
		data[k] = v
	}
	return data
}

// renderTemplate substitutes {{name}} placeholders; placeholders without a
// value render as empty rather than leaking braces into the message.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func defaultTemplates() map[string]map[string]string {
	return map[string]map[string]string{
		templateWelcome: {
			"subject": "Welcome! We received your request",
			"body":    "Hi {{first_name}}, thanks for reaching out. We'll be in touch shortly to schedule your first session.",
		},
		templateOperatorAlert: {
			"subject": "New lead: {{first_name}} {{last_name}}",
			"body":    "New intake lead {{first_name}} {{last_name}} ({{email}}). Status: {{status}}.",
		},
	}
}
