package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips markdown code fences from a model response, returning
// the raw JSON payload. Models frequently wrap JSON in ```json blocks even
// when asked not to.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	// Some models prepend prose before the JSON object.
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}

	return strings.TrimSpace(s)
}

// DecodeJSON extracts and unmarshals a model response into target,
// wrapping parse failures with ErrMalformedOutput.
func DecodeJSON(response string, target any) error {
	raw := ExtractJSON(response)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	return nil
}
