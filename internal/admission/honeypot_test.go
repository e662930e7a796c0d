package admission_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esmailgumaan/contact_svc/internal/admission"
)

func TestHoneypotDetectsFilledDecoyFields(t *testing.T) {
	detector := admission.NewHoneypotDetector(nil)

	testCases := []struct {
		name      string
		rawFields map[string]string
		filled    bool
	}{
		{name: "no fields", rawFields: map[string]string{}, filled: false},
		{name: "nil fields", rawFields: nil, filled: false},
		{name: "empty decoy values", rawFields: map[string]string{"website": "", "phone": ""}, filled: false},
		{name: "website filled", rawFields: map[string]string{"website": "http://spam"}, filled: true},
		{name: "hidden topic filled", rawFields: map[string]string{"_topic": "buy now"}, filled: true},
		{name: "topic filled", rawFields: map[string]string{"topic": "x"}, filled: true},
		{name: "url filled", rawFields: map[string]string{"url": "http://bot.example"}, filled: true},
		{name: "phone filled", rawFields: map[string]string{"phone": "+1234567"}, filled: true},
		{name: "non-decoy fields ignored", rawFields: map[string]string{"nickname": "zed"}, filled: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.filled, detector.IsHoneypotFilled(testCase.rawFields))
		})
	}
}

func TestHoneypotHonorsCustomDecoyFieldNames(t *testing.T) {
	detector := admission.NewHoneypotDetector([]string{"fax"})

	require.True(t, detector.IsHoneypotFilled(map[string]string{"fax": "555"}))
	require.False(t, detector.IsHoneypotFilled(map[string]string{"website": "http://spam"}))
}
