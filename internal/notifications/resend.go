package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/esmailgumaan/contact_svc/internal/model"
)

const (
	// DefaultResendBaseURL is the production Resend API endpoint.
	DefaultResendBaseURL = "https://api.resend.com"

	defaultRequestTimeout = 10 * time.Second

	resendEmailsPath        = "/emails"
	headerNameAuthorization = "Authorization"
	headerNameContentType   = "Content-Type"
	contentTypeJSON         = "application/json"
	bearerPrefix            = "Bearer "

	contactSubjectPattern = "New portfolio inquiry — %s"

	logEventResendRequestFailed = "resend_request_failed"
	logEventResendRejected      = "resend_rejected"
	logFieldStatusCode          = "status_code"
	logFieldContactID           = "contact_id"

	errorMessageMissingAPIKey      = "notifications: missing resend api key"
	errorMessageMissingFromAddress = "notifications: missing sender address"
	errorMessageMissingToAddress   = "notifications: missing recipient address"
	errorMessageBuildRequest       = "notifications: build resend request"
	errorMessageSendRequest        = "notifications: send resend request"
	errorMessageUnexpectedStatus   = "notifications: resend returned status %d"
)

var (
	// ErrMissingAPIKey indicates the Resend API key configuration was omitted.
	ErrMissingAPIKey = errors.New(errorMessageMissingAPIKey)
	// ErrMissingFromAddress indicates the sender address configuration was omitted.
	ErrMissingFromAddress = errors.New(errorMessageMissingFromAddress)
	// ErrMissingToAddress indicates the recipient address configuration was omitted.
	ErrMissingToAddress = errors.New(errorMessageMissingToAddress)
)

// ResendConfig captures connection settings for the Resend email API.
type ResendConfig struct {
	APIKey         string
	FromAddress    string
	ToAddress      string
	BaseURL        string
	RequestTimeout time.Duration
}

// ResendNotifier emails the site owner about new contact submissions through
// the Resend HTTP API.
type ResendNotifier struct {
	logger      *zap.Logger
	httpClient  *http.Client
	apiKey      string
	fromAddress string
	toAddress   string
	baseURL     string
}

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// NewResendNotifier creates a notifier backed by the Resend API.
func NewResendNotifier(logger *zap.Logger, configuration ResendConfig) (*ResendNotifier, error) {
	trimmedAPIKey := strings.TrimSpace(configuration.APIKey)
	if trimmedAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	trimmedFromAddress := strings.TrimSpace(configuration.FromAddress)
	if trimmedFromAddress == "" {
		return nil, ErrMissingFromAddress
	}
	trimmedToAddress := strings.TrimSpace(configuration.ToAddress)
	if trimmedToAddress == "" {
		return nil, ErrMissingToAddress
	}
	baseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}
	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResendNotifier{
		logger:      logger,
		httpClient:  &http.Client{Timeout: requestTimeout},
		apiKey:      trimmedAPIKey,
		fromAddress: trimmedFromAddress,
		toAddress:   trimmedToAddress,
		baseURL:     baseURL,
	}, nil
}

// NotifyContact emails the owner about the stored contact. A non-2xx response
// or transport failure is returned as an error; callers treat it as
// best-effort and never roll back the stored record.
func (notifier *ResendNotifier) NotifyContact(ctx context.Context, contact model.Contact) error {
	payload := resendEmailRequest{
		From:    notifier.fromAddress,
		To:      []string{notifier.toAddress},
		Subject: fmt.Sprintf(contactSubjectPattern, contact.Name),
		Text:    renderContactEmailBody(contact),
	}

	encodedPayload, encodeErr := json.Marshal(payload)
	if encodeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, encodeErr)
	}

	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, notifier.baseURL+resendEmailsPath, bytes.NewReader(encodedPayload))
	if requestErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, requestErr)
	}
	request.Header.Set(headerNameAuthorization, bearerPrefix+notifier.apiKey)
	request.Header.Set(headerNameContentType, contentTypeJSON)

	response, sendErr := notifier.httpClient.Do(request)
	if sendErr != nil {
		notifier.logger.Warn(logEventResendRequestFailed, zap.Error(sendErr), zap.String(logFieldContactID, contact.ID))
		return fmt.Errorf("%s: %w", errorMessageSendRequest, sendErr)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		notifier.logger.Warn(logEventResendRejected,
			zap.Int(logFieldStatusCode, response.StatusCode),
			zap.String(logFieldContactID, contact.ID),
		)
		return fmt.Errorf(errorMessageUnexpectedStatus, response.StatusCode)
	}

	return nil
}

func renderContactEmailBody(contact model.Contact) string {
	bodyBuilder := &strings.Builder{}
	_, _ = fmt.Fprintf(bodyBuilder, "New contact form submission:\n\n")
	_, _ = fmt.Fprintf(bodyBuilder, "Name: %s\n", contact.Name)
	_, _ = fmt.Fprintf(bodyBuilder, "Email: %s\n\n", contact.Email)
	_, _ = fmt.Fprintf(bodyBuilder, "Message:\n%s\n\n", contact.Message)
	_, _ = fmt.Fprintf(bodyBuilder, "---\n")
	_, _ = fmt.Fprintf(bodyBuilder, "Submitted: %s\n", contact.CreatedAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(bodyBuilder, "IP Hash: %s\n", contact.IPHash)
	_, _ = fmt.Fprintf(bodyBuilder, "User Agent: %s\n", contact.UserAgent)
	_, _ = fmt.Fprintf(bodyBuilder, "Consent: %t\n", contact.Consent)
	return bodyBuilder.String()
}
