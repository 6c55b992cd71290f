package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on one
// agent input.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // Name of the input that failed the check
	Value       any    // The value that was checked
}

// CheckInputForInjection uses libinjection to detect SQL injection patterns
// in an agent input such as a chat question or a tool topic.
//
// Only string values are checked - numbers, booleans, and other types cannot
// contain SQL injection patterns and will return nil (no injection detected).
//
// Returns nil if no injection is detected, or an InjectionCheckResult with
// details about the detected pattern.
func CheckInputForInjection(input string, value any) *InjectionCheckResult {
	// Only check string values - numbers/booleans can't contain injection
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Input:       input,
			Value:       value,
		}
	}

	return nil
}

// CheckAllInputs screens a set of named inputs for SQL injection attempts.
//
// Returns a slice of InjectionCheckResult for each input that failed the
// check. Returns an empty slice if all inputs are clean.
func CheckAllInputs(inputs map[string]any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for name, value := range inputs {
		if result := CheckInputForInjection(name, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
