package admission

// DefaultDecoyFieldNames lists the decoy form fields injected into the
// contact form markup but hidden from human visitors. Automated form fillers
// populate them, which marks the submission as spam.
var DefaultDecoyFieldNames = []string{"_topic", "topic", "website", "url", "phone"}

// HoneypotDetector flags submissions that filled any configured decoy field.
type HoneypotDetector struct {
	decoyFieldNames []string
}

// NewHoneypotDetector creates a detector for the provided decoy field names.
// An empty list falls back to DefaultDecoyFieldNames.
func NewHoneypotDetector(decoyFieldNames []string) *HoneypotDetector {
	if len(decoyFieldNames) == 0 {
		decoyFieldNames = DefaultDecoyFieldNames
	}
	return &HoneypotDetector{decoyFieldNames: decoyFieldNames}
}

// IsHoneypotFilled reports whether any decoy field carries a non-empty value.
// Callers drop such submissions silently rather than surfacing an error.
func (detector *HoneypotDetector) IsHoneypotFilled(rawFields map[string]string) bool {
	for _, decoyFieldName := range detector.decoyFieldNames {
		if rawFields[decoyFieldName] != "" {
			return true
		}
	}
	return false
}
