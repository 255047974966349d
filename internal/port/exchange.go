package port

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExchangeDocument is one invoice as delivered by the exchange: the
// exchange-assigned number from the envelope plus the raw XML payload.
type ExchangeDocument struct {
	KSeFNumber string
	IssuedAt   time.Time
	XML        []byte
}

// FetchBatchOutput is one page of the exchange query.
type FetchBatchOutput struct {
	Documents  []ExchangeDocument
	NextCursor string
	HasMore    bool
}

// ExchangeConnector abstracts the national e-invoicing exchange. FetchBatch
// returns documents issued since the given time, page by page. Implementations
// wrap retryable failures (rate limits, outages, network errors) in
// TransientExchangeError; any other error is fatal for the run.
type ExchangeConnector interface {
	FetchBatch(ctx context.Context, since time.Time, cursor string) (*FetchBatchOutput, error)
}

// TransientExchangeError marks an exchange failure that is safe to retry on
// the next scheduled trigger.
type TransientExchangeError struct {
	Err error
}

func (e *TransientExchangeError) Error() string {
	return fmt.Sprintf("transient exchange error: %v", e.Err)
}

func (e *TransientExchangeError) Unwrap() error {
	return e.Err
}

// IsTransientExchangeError reports whether err is (or wraps) a transient
// exchange failure.
func IsTransientExchangeError(err error) bool {
	var t *TransientExchangeError
	return errors.As(err, &t)
}
