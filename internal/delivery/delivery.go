// Package delivery hands rendered notifications to the email gateway.
package delivery

import (
	"context"
	"fmt"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/errs"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

//go:generate mockgen -source=$GOFILE -destination=delivery_mocks_test.go -package=delivery_test

// Gateway delivers a single message. Any returned error is a *DeliveryError.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError is a gateway failure. Transient failures are retried,
// permanent ones (rejected recipient, unverified sender) are not.
type DeliveryError struct {
	To        string
	Transient bool
	Err       error
}

func (e *DeliveryError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("deliver to %s (%s): %s", e.To, kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == errs.ErrDelivery
}

// NewGateway builds the configured gateway, wrapped with throttling and retries.
func NewGateway(ctx context.Context, cfg *config.Config, onRetry func()) (Gateway, error) {
	var gw Gateway
	switch cfg.DeliveryDriver {
	case config.DeliveryDriverSES:
		sesGateway, err := NewSESGateway(ctx, cfg.SESRegion, cfg.EmailSender)
		if err != nil {
			return nil, err
		}
		gw = sesGateway
	case config.DeliveryDriverLog:
		gw = NewLogGateway()
	default:
		return nil, fmt.Errorf("unknown delivery driver: %s", cfg.DeliveryDriver)
	}
	return NewThrottledGateway(gw, cfg.DeliveryRatePerSec, cfg.DeliveryRetryMax, onRetry), nil
}
