package admission_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esmailgumaan/contact_svc/internal/admission"
)

func newTestValidator(t *testing.T) *admission.Validator {
	t.Helper()
	fieldValidator, validatorErr := admission.NewValidator()
	require.NoError(t, validatorErr)
	return fieldValidator
}

func validSubmission() admission.Submission {
	return admission.Submission{
		Name:    "John Smith",
		Email:   "john@example.com",
		Message: "hi",
		Consent: true,
	}
}

func TestValidateAcceptsWellFormedSubmission(t *testing.T) {
	fieldValidator := newTestValidator(t)

	errorsByField := fieldValidator.Validate(validSubmission())
	require.Empty(t, errorsByField)
}

func TestValidateAcceptsMixedCaseEmail(t *testing.T) {
	fieldValidator := newTestValidator(t)

	submission := validSubmission()
	submission.Email = "JOHN@Example.com"
	require.Empty(t, fieldValidator.Validate(submission))
}

func TestValidateMissingNameReportsNameErrorOnly(t *testing.T) {
	fieldValidator := newTestValidator(t)

	submission := validSubmission()
	submission.Name = ""
	submission.Email = "x@y.com"

	errorsByField := fieldValidator.Validate(submission)
	require.Len(t, errorsByField, 1)
	require.Equal(t, []string{"Name is required"}, errorsByField["name"])
}

func TestValidateRejectsMalformedEmails(t *testing.T) {
	fieldValidator := newTestValidator(t)

	malformedEmails := []string{
		"not-an-email",
		"missing-domain@",
		"@missing-local.example",
		"user@-bad-label.example",
		"user@label-.example",
		"user@" + strings.Repeat("a", 64) + ".example",
		"two@@example.com",
	}

	for _, malformedEmail := range malformedEmails {
		submission := validSubmission()
		submission.Email = malformedEmail

		errorsByField := fieldValidator.Validate(submission)
		require.Equal(t, []string{"Please provide a valid email address"}, errorsByField["email"], "email %q", malformedEmail)
	}
}

func TestValidateFieldLengthBoundaries(t *testing.T) {
	fieldValidator := newTestValidator(t)

	testCases := []struct {
		name          string
		mutate        func(*admission.Submission)
		expectedField string
		expectValid   bool
	}{
		{
			name:        "name at exactly 120 passes",
			mutate:      func(submission *admission.Submission) { submission.Name = strings.Repeat("n", 120) },
			expectValid: true,
		},
		{
			name:          "name at 121 fails",
			mutate:        func(submission *admission.Submission) { submission.Name = strings.Repeat("n", 121) },
			expectedField: "name",
		},
		{
			name:        "message at exactly 2000 passes",
			mutate:      func(submission *admission.Submission) { submission.Message = strings.Repeat("m", 2000) },
			expectValid: true,
		},
		{
			name:          "message at 2001 fails",
			mutate:        func(submission *admission.Submission) { submission.Message = strings.Repeat("m", 2001) },
			expectedField: "message",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			submission := validSubmission()
			testCase.mutate(&submission)

			errorsByField := fieldValidator.Validate(submission)
			if testCase.expectValid {
				require.Empty(t, errorsByField)
				return
			}
			require.Contains(t, errorsByField, testCase.expectedField)
		})
	}
}

func TestValidateConsentMustBeTrue(t *testing.T) {
	fieldValidator := newTestValidator(t)

	submission := validSubmission()
	submission.Consent = false

	errorsByField := fieldValidator.Validate(submission)
	require.Equal(t, []string{"Consent is required"}, errorsByField["consent"])
}

func TestValidateConsentErrorReportedAlongsideOtherErrors(t *testing.T) {
	fieldValidator := newTestValidator(t)

	submission := admission.Submission{
		Name:    "",
		Email:   "not-an-email",
		Message: "",
		Consent: false,
	}

	errorsByField := fieldValidator.Validate(submission)
	require.Len(t, errorsByField, 4)
	require.Contains(t, errorsByField, "name")
	require.Contains(t, errorsByField, "email")
	require.Contains(t, errorsByField, "message")
	require.Contains(t, errorsByField, "consent")
}

func TestValidateTrimsBeforeChecking(t *testing.T) {
	fieldValidator := newTestValidator(t)

	submission := validSubmission()
	submission.Name = "   "
	submission.Message = " \t "

	errorsByField := fieldValidator.Validate(submission)
	require.Equal(t, []string{"Name is required"}, errorsByField["name"])
	require.Equal(t, []string{"Message is required"}, errorsByField["message"])
}
