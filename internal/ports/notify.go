package ports

import "context"

// Notifier delivers transactional email to account holders.
// Implementations wrap failures in domain.ErrDelivery so callers can report
// upstream outages distinctly from validation problems.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
