package delivery

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogGateway only logs messages. Used in development and for dry runs.
type LogGateway struct{}

func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

func (g *LogGateway) Send(_ context.Context, msg Message) error {
	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("delivery: message logged, not sent")
	log.Tracef("delivery: text body:\n%s", msg.Text)
	return nil
}
