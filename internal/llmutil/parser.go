// File: internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Regex uses \x60 for backticks because Go raw strings cannot contain them.
var fencedBlockRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(.*?)\\s*\x60\x60\x60")

// ExtractJSONObject pulls the first top-level JSON object out of an LLM
// response. Brace matching, not strict parsing: the response may wrap the
// object in prose or a markdown fence, and strings inside the object may
// themselves contain braces.
func ExtractJSONObject(response string) (string, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if matches := fencedBlockRegex.FindStringSubmatch(response); len(matches) > 1 {
			response = strings.TrimSpace(matches[1])
		}
	}

	start := strings.Index(response, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}

// DecodeObject extracts and unmarshals a JSON object from an LLM response
// into T. If the extracted text is not strictly valid JSON it gets one repair
// pass (trailing commas, single quotes, unquoted keys) before giving up.
func DecodeObject[T any](response string) (*T, error) {
	raw, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		return &result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return nil, fmt.Errorf("failed to repair LLM JSON: %w (raw: %s)", repairErr, truncate(raw, 300))
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w (raw: %s)", err, truncate(raw, 300))
	}
	return &result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
