package admission

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	fieldNameName    = "name"
	fieldNameEmail   = "email"
	fieldNameMessage = "message"
	fieldNameConsent = "consent"

	validationTagRequired     = "required"
	validationTagContactEmail = "contact_email"

	messageNameRequired    = "Name is required"
	messageNameLength      = "Name must be between 1 and 120 characters"
	messageEmailRequired   = "Email is required"
	messageEmailInvalid    = "Please provide a valid email address"
	messageMessageRequired = "Message is required"
	messageMessageLength   = "Message must be between 1 and 2000 characters"
	messageConsentRequired = "Consent is required"

	messageFieldInvalidPattern = "%s is invalid"
)

// emailAddressPattern is the RFC-5322-shaped address check: a permissive
// local part, then domain labels of at most 63 characters that neither start
// nor end with a hyphen.
var emailAddressPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$",
)

// contactFormValues mirrors the validated submission fields. Values are
// normalized (trimmed, email lowercased) before validation so the rules see
// what would actually be stored.
type contactFormValues struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,contact_email"`
	Message string `json:"message" validate:"required,max=2000"`
	Consent bool   `json:"consent" validate:"eq=true"`
}

// Validator checks submission fields and reports human-readable errors keyed
// by field name. All rules are evaluated independently, so one submission can
// carry several field errors at once.
type Validator struct {
	engine *validator.Validate
}

// NewValidator creates a Validator with the contact-form rules registered.
func NewValidator() (*Validator, error) {
	engine := validator.New(validator.WithRequiredStructEnabled())

	engine.RegisterTagNameFunc(func(structField reflect.StructField) string {
		tagValue := strings.SplitN(structField.Tag.Get("json"), ",", 2)[0]
		if tagValue == "-" {
			return ""
		}
		return tagValue
	})

	registerErr := engine.RegisterValidation(validationTagContactEmail, func(fieldLevel validator.FieldLevel) bool {
		return emailAddressPattern.MatchString(fieldLevel.Field().String())
	})
	if registerErr != nil {
		return nil, fmt.Errorf("admission: register email validation: %w", registerErr)
	}

	return &Validator{engine: engine}, nil
}

// Validate returns the submission's validation errors keyed by field name.
// An empty map means the submission is valid.
func (fieldValidator *Validator) Validate(submission Submission) map[string][]string {
	values := contactFormValues{
		Name:    strings.TrimSpace(submission.Name),
		Email:   strings.ToLower(strings.TrimSpace(submission.Email)),
		Message: strings.TrimSpace(submission.Message),
		Consent: submission.Consent,
	}

	errorsByField := make(map[string][]string)

	validationErr := fieldValidator.engine.Struct(values)
	if validationErr == nil {
		return errorsByField
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(validationErr, &fieldErrors) {
		errorsByField[fieldNameName] = append(errorsByField[fieldNameName], fmt.Sprintf(messageFieldInvalidPattern, fieldNameName))
		return errorsByField
	}

	for _, fieldError := range fieldErrors {
		fieldName := fieldError.Field()
		errorsByField[fieldName] = append(errorsByField[fieldName], messageForFieldError(fieldName, fieldError.Tag()))
	}

	return errorsByField
}

func messageForFieldError(fieldName string, failedTag string) string {
	switch fieldName {
	case fieldNameName:
		if failedTag == validationTagRequired {
			return messageNameRequired
		}
		return messageNameLength
	case fieldNameEmail:
		if failedTag == validationTagRequired {
			return messageEmailRequired
		}
		return messageEmailInvalid
	case fieldNameMessage:
		if failedTag == validationTagRequired {
			return messageMessageRequired
		}
		return messageMessageLength
	case fieldNameConsent:
		return messageConsentRequired
	default:
		return fmt.Sprintf(messageFieldInvalidPattern, fieldName)
	}
}
