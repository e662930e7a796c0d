package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/esmailgumaan/contact_svc/internal/admission"
)

const (
	jsonKeyOK      = "ok"
	jsonKeyError   = "error"
	jsonKeyErrors  = "errors"
	jsonKeyMessage = "message"

	errorValueInvalidJSON   = "invalid_json"
	errorValueRateLimited   = "Rate limit exceeded. Please try again later."
	errorValueInternalError = "Internal server error. Please try again."

	rootGreetingMessage = "Hello World"
)

// ContactHandlers serves the public contact-form endpoint.
type ContactHandlers struct {
	pipeline *admission.Pipeline
	logger   *zap.Logger
}

// NewContactHandlers creates handlers backed by the admission pipeline.
func NewContactHandlers(pipeline *admission.Pipeline, logger *zap.Logger) *ContactHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandlers{pipeline: pipeline, logger: logger}
}

// createContactRequest mirrors the contact form payload. Consent is a
// pointer so an absent field reads as not-given rather than false-by-default.
// The trailing fields are the hidden decoy inputs.
type createContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Consent *bool  `json:"consent"`

	HiddenTopic string `json:"_topic"`
	Topic       string `json:"topic"`
	Website     string `json:"website"`
	URL         string `json:"url"`
	Phone       string `json:"phone"`
}

// SubmitContact accepts a contact-form submission and maps the pipeline
// outcome onto HTTP: 200 accepted, 204 silent drop, 429 throttled, 422 field
// errors, 500 storage failure.
func (handlers *ContactHandlers) SubmitContact(context *gin.Context) {
	var payload createContactRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyOK: false, jsonKeyError: errorValueInvalidJSON})
		return
	}

	consentGiven := payload.Consent != nil && *payload.Consent

	submission := admission.Submission{
		Name:    payload.Name,
		Email:   payload.Email,
		Message: payload.Message,
		Consent: consentGiven,
		DecoyFields: map[string]string{
			"_topic":  payload.HiddenTopic,
			"topic":   payload.Topic,
			"website": payload.Website,
			"url":     payload.URL,
			"phone":   payload.Phone,
		},
		RawAddress: context.ClientIP(),
		UserAgent:  context.Request.UserAgent(),
	}

	result := handlers.pipeline.Admit(context.Request.Context(), submission)

	switch result.Outcome {
	case admission.OutcomeAccepted:
		context.JSON(http.StatusOK, gin.H{jsonKeyOK: true})
	case admission.OutcomeDroppedSilently:
		context.Status(http.StatusNoContent)
	case admission.OutcomeRateLimited:
		context.JSON(http.StatusTooManyRequests, gin.H{jsonKeyOK: false, jsonKeyError: errorValueRateLimited})
	case admission.OutcomeValidationFailed:
		context.JSON(http.StatusUnprocessableEntity, gin.H{jsonKeyOK: false, jsonKeyErrors: result.FieldErrors})
	default:
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyOK: false, jsonKeyError: errorValueInternalError})
	}
}

// Root answers the API liveness probe.
func (handlers *ContactHandlers) Root(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{jsonKeyMessage: rootGreetingMessage})
}
