package delivery

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ThrottledGateway limits the send rate towards the wrapped gateway and retries
// transient failures with exponential backoff, at most retryMax times.
type ThrottledGateway struct {
	next       Gateway
	limiter    *rate.Limiter
	retryMax   int
	onRetry    func()
	newBackOff func() backoff.BackOff
}

func NewThrottledGateway(next Gateway, ratePerSec float64, retryMax int, onRetry func()) *ThrottledGateway {
	burst := int(math.Max(1, ratePerSec))
	if retryMax < 0 {
		retryMax = 0
	}
	return &ThrottledGateway{
		next:     next,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), burst),
		retryMax: retryMax,
		onRetry:  onRetry,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// WithBackOff replaces the backoff policy used between retries.
func (g *ThrottledGateway) WithBackOff(newBackOff func() backoff.BackOff) *ThrottledGateway {
	g.newBackOff = newBackOff
	return g
}

func (g *ThrottledGateway) Send(ctx context.Context, msg Message) error {
	operation := func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&DeliveryError{To: msg.To, Transient: true, Err: err})
		}
		err := g.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		deliveryErr := asDeliveryError(msg.To, err)
		if !deliveryErr.Transient {
			return backoff.Permanent(deliveryErr)
		}
		return deliveryErr
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.retryMax)), ctx)
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		log.Warnf("delivery to %s failed, retry in %s: %s", msg.To, wait, err)
		if g.onRetry != nil {
			g.onRetry()
		}
	})
	if err != nil {
		return asDeliveryError(msg.To, err)
	}
	return nil
}

func asDeliveryError(to string, err error) *DeliveryError {
	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr
	}
	return &DeliveryError{To: to, Transient: true, Err: err}
}
