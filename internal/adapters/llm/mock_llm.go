package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

// MockLLM answers without any network call. Used in local mode.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(_ context.Context, messages []domain.Message) (string, error) {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			last = messages[i].Content
			break
		}
	}
	return fmt.Sprintf("You asked: %q. This is general legal information only; please consult a licensed Philippine lawyer for advice on your situation.", last), nil
}
