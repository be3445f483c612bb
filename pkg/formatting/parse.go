package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrParseFailed is returned when content cannot be parsed as JSON,
	// either directly or from a markdown code fence.
	ErrParseFailed = errors.New("failed to parse response")
	// ErrNoObject is returned when content holds no brace-delimited JSON object.
	ErrNoObject = errors.New("no JSON object in content")
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T.
// If direct parsing fails, it extracts JSON from a markdown code fence
// and retries. Returns ErrParseFailed if both attempts fail.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// ExtractObject returns the span of content from the first '{' through the
// last '}' inclusive. The span is not validated as JSON.
func ExtractObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

// ParseObject locates the first brace-delimited object in content and
// unmarshals it into T. Returns ErrNoObject when no braces are present and
// ErrParseFailed when the located span is not valid JSON for T.
func ParseObject[T any](content string) (T, error) {
	var result T

	obj, ok := ExtractObject(content)
	if !ok {
		return result, ErrNoObject
	}

	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	return result, nil
}
