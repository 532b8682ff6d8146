package sms

import "context"

// Provider sends a single SMS message to an E.164 recipient.
type Provider interface {
	Send(ctx context.Context, to string, message string) error
}

// NoOpProvider drops messages. Used when no API key is configured and
// in tests that do not assert on delivery.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to string, message string) error {
	return nil
}
