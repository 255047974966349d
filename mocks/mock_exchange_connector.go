package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"farmbooks/internal/port"
)

// MockExchangeConnector is a mock implementation of port.ExchangeConnector.
type MockExchangeConnector struct {
	mock.Mock
}

func (m *MockExchangeConnector) FetchBatch(ctx context.Context, since time.Time, cursor string) (*port.FetchBatchOutput, error) {
	args := m.Called(ctx, since, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchBatchOutput), args.Error(1)
}
