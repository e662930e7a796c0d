package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/esmailgumaan/contact_svc/internal/model"
)

const (
	logEventEmailLoggedOnly = "email_notification_logged_only"
	logFieldEmailSubject    = "subject"
	logFieldEmailBody       = "body"
)

// LoggingNotifier logs the notification email instead of sending it. It is
// the development-mode fallback used when no Resend API key is configured,
// and it always reports success.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a LoggingNotifier writing to the provided logger.
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

// NotifyContact logs the email content that would have been sent.
func (notifier *LoggingNotifier) NotifyContact(ctx context.Context, contact model.Contact) error {
	notifier.logger.Info(logEventEmailLoggedOnly,
		zap.String(logFieldEmailSubject, fmt.Sprintf(contactSubjectPattern, contact.Name)),
		zap.String(logFieldEmailBody, renderContactEmailBody(contact)),
	)
	return nil
}
