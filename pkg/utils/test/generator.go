package testutils

import (
	"context"
	"fmt"

	"github.com/quarryhq/dossier/pkg/llm"
)

// MockGenerator is a test generator returning a canned reply.
type MockGenerator struct {
	// Reply is returned by every Generate call.
	Reply string

	// Fail causes Generate to return an error.
	Fail bool

	// Calls accumulates the conversations passed to Generate.
	Calls [][]llm.Message
}

func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: reply}
}

func (m *MockGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Fail {
		return "", fmt.Errorf("mock generation failure")
	}
	return m.Reply, nil
}

func (m *MockGenerator) Close() error {
	return nil
}

// Ensure MockGenerator implements llm.Generator
var _ llm.Generator = (*MockGenerator)(nil)
