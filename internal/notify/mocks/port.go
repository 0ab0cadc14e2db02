package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPort is a testify mock of notify.Port.
type MockPort struct {
	mock.Mock
}

func (m *MockPort) Notify(ctx context.Context, recipient, text string) error {
	args := m.Called(ctx, recipient, text)
	return args.Error(0)
}
