package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkBlockPattern matches a leading <think>...</think> block that
// reasoning models may prepend to their responses.
var thinkBlockPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// thinkContentPattern extracts the content inside <think>...</think> tags.
var thinkContentPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// ExtractThinking returns the content of the first <think> block in a
// model response, or "" when there is none.
func ExtractThinking(response string) string {
	if m := thinkContentPattern.FindStringSubmatch(response); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractJSON pulls the first complete JSON value out of a model response
// that may be wrapped in <think> tags, markdown fences, or prose. The
// decoder does the heavy lifting: it stops at the end of the first valid
// value, so trailing prose never breaks extraction.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkBlockPattern.ReplaceAllString(response, "")

	for _, start := range jsonCandidateOffsets(cleaned) {
		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
		if err := dec.Decode(&raw); err == nil {
			return string(raw), nil
		}
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// jsonCandidateOffsets returns the offsets of '{' and '[' that could open
// a JSON value, earliest first.
func jsonCandidateOffsets(s string) []int {
	var offsets []int
	obj := strings.IndexByte(s, '{')
	arr := strings.IndexByte(s, '[')

	switch {
	case obj < 0 && arr < 0:
		return nil
	case obj < 0:
		offsets = append(offsets, arr)
	case arr < 0:
		offsets = append(offsets, obj)
	case obj < arr:
		offsets = append(offsets, obj, arr)
	default:
		offsets = append(offsets, arr, obj)
	}
	return offsets
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
