package testutils

import (
	"context"
	"sync"

	"github.com/fahd-noodleseed/memoire/pkg/llm"
)

// MockLLM is a scripted language-model caller. Responses are returned in
// order; once exhausted the last one repeats.
type MockLLM struct {
	// Responses are the scripted raw completions.
	Responses []string

	// Err, when set, is returned by every call instead of a response.
	Err error

	mu      sync.Mutex
	prompts []string
	calls   int
}

// CallFunc returns an llm.CallFunc backed by the script.
func (m *MockLLM) CallFunc() llm.CallFunc {
	return func(_ context.Context, prompt string) (string, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.prompts = append(m.prompts, prompt)
		m.calls++

		if m.Err != nil {
			return "", m.Err
		}
		if len(m.Responses) == 0 {
			return "{}", nil
		}

		idx := m.calls - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}

		return m.Responses[idx], nil
	}
}

// Calls reports how many times the caller was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Prompts returns a copy of the prompts seen so far.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.prompts))
	copy(out, m.prompts)

	return out
}
