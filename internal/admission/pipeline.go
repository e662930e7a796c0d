package admission

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/esmailgumaan/contact_svc/internal/model"
)

// Outcome identifies the terminal state the pipeline reached for a submission.
type Outcome string

const (
	// OutcomeAccepted means the submission was stored (and notification attempted).
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDroppedSilently means a decoy field was filled and the submission
	// was discarded without storage or notification.
	OutcomeDroppedSilently Outcome = "dropped_silently"
	// OutcomeRateLimited means the identity exhausted its submission quota.
	OutcomeRateLimited Outcome = "rate_limited"
	// OutcomeValidationFailed means one or more fields failed validation.
	OutcomeValidationFailed Outcome = "validation_failed"
	// OutcomeInternalError means the storage collaborator failed.
	OutcomeInternalError Outcome = "internal_error"
)

const (
	logEventContactAttempt    = "contact_form_attempt"
	logEventHoneypotTriggered = "honeypot_triggered"
	logEventRateLimitExceeded = "rate_limit_exceeded"
	logEventValidationFailed  = "contact_form_validation_failed"
	logEventStoreFailed       = "contact_store_failed"
	logEventNotifyFailed      = "contact_notification_failed"
	logEventContactAccepted   = "contact_form_success"

	logFieldIdentityToken    = "ip_hash"
	logFieldUserAgent        = "user_agent"
	logFieldContactID        = "contact_id"
	logFieldNotificationSent = "email_sent"
	logFieldErrorFields      = "fields"

	loggedUserAgentMaxLength = 100

	errorMessageNilStorer    = "admission: nil contact storer"
	errorMessageNilLimiter   = "admission: nil rate limiter"
	errorMessageNilHasher    = "admission: nil identity hasher"
	errorMessageNilValidator = "admission: nil validator"
)

var (
	// ErrNilStorer indicates the pipeline was constructed without storage.
	ErrNilStorer = errors.New(errorMessageNilStorer)
	// ErrNilLimiter indicates the pipeline was constructed without a rate limiter.
	ErrNilLimiter = errors.New(errorMessageNilLimiter)
	// ErrNilHasher indicates the pipeline was constructed without an identity hasher.
	ErrNilHasher = errors.New(errorMessageNilHasher)
	// ErrNilValidator indicates the pipeline was constructed without a validator.
	ErrNilValidator = errors.New(errorMessageNilValidator)
)

// Submission carries one untrusted contact-form submission through the
// pipeline. DecoyFields holds the raw values of the hidden honeypot inputs.
type Submission struct {
	Name        string
	Email       string
	Message     string
	Consent     bool
	DecoyFields map[string]string

	RawAddress string
	UserAgent  string
}

// Result reports the pipeline's terminal state for one submission.
type Result struct {
	Outcome          Outcome
	FieldErrors      map[string][]string
	ContactID        string
	NotificationSent bool
	IdentityToken    string
}

// ContactStorer persists an admitted contact record and returns its identifier.
type ContactStorer interface {
	StoreContact(ctx context.Context, contact model.Contact) (string, error)
}

// ContactNotifier informs the site owner of a stored contact. Failures are
// non-fatal for the submission.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, contact model.Contact) error
}

type noopContactNotifier struct{}

func (noopContactNotifier) NotifyContact(ctx context.Context, contact model.Contact) error {
	return nil
}

// Pipeline applies the anti-abuse checks to each submission in a fixed
// order (honeypot, rate limit, validation) and delegates storage and
// notification once a submission is admitted. A honeypot hit never consumes
// rate-limit quota.
type Pipeline struct {
	honeypotDetector *HoneypotDetector
	rateLimiter      *SlidingWindowLimiter
	identityHasher   *IdentityHasher
	fieldValidator   *Validator
	contactStorer    ContactStorer
	contactNotifier  ContactNotifier
	logger           *zap.Logger
}

// PipelineConfig captures the pipeline's collaborators. Honeypot detector,
// notifier and logger are optional; the remaining collaborators are required.
type PipelineConfig struct {
	HoneypotDetector *HoneypotDetector
	RateLimiter      *SlidingWindowLimiter
	IdentityHasher   *IdentityHasher
	FieldValidator   *Validator
	ContactStorer    ContactStorer
	ContactNotifier  ContactNotifier
	Logger           *zap.Logger
}

// NewPipeline creates a Pipeline from the provided collaborators.
func NewPipeline(configuration PipelineConfig) (*Pipeline, error) {
	if configuration.RateLimiter == nil {
		return nil, ErrNilLimiter
	}
	if configuration.IdentityHasher == nil {
		return nil, ErrNilHasher
	}
	if configuration.FieldValidator == nil {
		return nil, ErrNilValidator
	}
	if configuration.ContactStorer == nil {
		return nil, ErrNilStorer
	}
	if configuration.HoneypotDetector == nil {
		configuration.HoneypotDetector = NewHoneypotDetector(nil)
	}
	if configuration.ContactNotifier == nil {
		configuration.ContactNotifier = noopContactNotifier{}
	}
	if configuration.Logger == nil {
		configuration.Logger = zap.NewNop()
	}

	return &Pipeline{
		honeypotDetector: configuration.HoneypotDetector,
		rateLimiter:      configuration.RateLimiter,
		identityHasher:   configuration.IdentityHasher,
		fieldValidator:   configuration.FieldValidator,
		contactStorer:    configuration.ContactStorer,
		contactNotifier:  configuration.ContactNotifier,
		logger:           configuration.Logger,
	}, nil
}

// Admit runs the submission through honeypot, rate-limit and validation
// checks in that order, then sanitizes, persists and notifies. The returned
// Result carries the terminal outcome; a stored record exists if and only if
// the outcome is OutcomeAccepted.
func (pipeline *Pipeline) Admit(ctx context.Context, submission Submission) Result {
	identityToken := pipeline.identityHasher.HashIdentity(submission.RawAddress)

	pipeline.logger.Info(logEventContactAttempt,
		zap.String(logFieldIdentityToken, identityToken),
		zap.String(logFieldUserAgent, truncateText(submission.UserAgent, loggedUserAgentMaxLength)),
	)

	if pipeline.honeypotDetector.IsHoneypotFilled(submission.DecoyFields) {
		pipeline.logger.Info(logEventHoneypotTriggered, zap.String(logFieldIdentityToken, identityToken))
		return Result{Outcome: OutcomeDroppedSilently, IdentityToken: identityToken}
	}

	if !pipeline.rateLimiter.CheckAndRecord(identityToken) {
		pipeline.logger.Info(logEventRateLimitExceeded, zap.String(logFieldIdentityToken, identityToken))
		return Result{Outcome: OutcomeRateLimited, IdentityToken: identityToken}
	}

	fieldErrors := pipeline.fieldValidator.Validate(submission)
	if len(fieldErrors) > 0 {
		pipeline.logger.Info(logEventValidationFailed,
			zap.String(logFieldIdentityToken, identityToken),
			zap.Strings(logFieldErrorFields, fieldErrorKeys(fieldErrors)),
		)
		return Result{Outcome: OutcomeValidationFailed, FieldErrors: fieldErrors, IdentityToken: identityToken}
	}

	contact := model.Contact{
		Name:      Sanitize(submission.Name),
		Email:     strings.ToLower(Sanitize(submission.Email)),
		Message:   Sanitize(submission.Message),
		IPHash:    identityToken,
		UserAgent: truncateText(submission.UserAgent, model.ContactUserAgentMaxLength),
		Consent:   submission.Consent,
	}

	contactID, storeErr := pipeline.contactStorer.StoreContact(ctx, contact)
	if storeErr != nil {
		pipeline.logger.Error(logEventStoreFailed,
			zap.Error(storeErr),
			zap.String(logFieldIdentityToken, identityToken),
		)
		return Result{Outcome: OutcomeInternalError, IdentityToken: identityToken}
	}
	contact.ID = contactID

	notificationSent := true
	if notifyErr := pipeline.contactNotifier.NotifyContact(ctx, contact); notifyErr != nil {
		notificationSent = false
		pipeline.logger.Warn(logEventNotifyFailed,
			zap.Error(notifyErr),
			zap.String(logFieldContactID, contactID),
		)
	}

	pipeline.logger.Info(logEventContactAccepted,
		zap.String(logFieldContactID, contactID),
		zap.String(logFieldIdentityToken, identityToken),
		zap.Bool(logFieldNotificationSent, notificationSent),
	)

	return Result{
		Outcome:          OutcomeAccepted,
		ContactID:        contactID,
		NotificationSent: notificationSent,
		IdentityToken:    identityToken,
	}
}

func fieldErrorKeys(errorsByField map[string][]string) []string {
	keys := make([]string, 0, len(errorsByField))
	for fieldName := range errorsByField {
		keys = append(keys, fieldName)
	}
	return keys
}

func truncateText(input string, max int) string {
	if len(input) <= max {
		return input
	}
	return input[:max]
}
