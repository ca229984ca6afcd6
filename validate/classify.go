package validate

import "strings"

// Rule - one (substring, outcome) pair of the error-text classifier.
type Rule struct {
	Substring string
	Outcome   Outcome
}

// Classifier folds raw error text into an outcome. Matching on message text is
// a deliberate cross-platform shim: the same auth or network fault surfaces
// with different types on different OSes but stable wording. First match wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier - ...
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// DefaultClassifier carries the wording observed in production failures.
func DefaultClassifier() *Classifier {
	return NewClassifier([]Rule{
		{"logon failure", EncounteredLogonFailure},
		{"NT_STATUS_LOGON_FAILURE", EncounteredLogonFailure},
		{"NT_STATUS_WRONG_PASSWORD", EncounteredLogonFailure},
		{"user name or password", EncounteredLogonFailure},
		{"permission denied", EncounteredLogonFailure},
		{"access is denied", EncounteredLogonFailure},
		{"network path", EncounteredNetworkError},
		{"network name", EncounteredNetworkError},
		{"no route to host", EncounteredNetworkError},
		{"connection refused", EncounteredNetworkError},
		{"connection reset", EncounteredNetworkError},
		{"connection timed out", EncounteredNetworkError},
		{"host is down", EncounteredNetworkError},
		{"i/o timeout", EncounteredNetworkError},
	})
}

// Classify - ...
func (cl *Classifier) Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	text := strings.ToLower(err.Error())
	for _, rule := range cl.rules {
		if strings.Contains(text, strings.ToLower(rule.Substring)) {
			return rule.Outcome
		}
	}
	return EncounteredError
}
