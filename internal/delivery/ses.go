package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/marathon/internal/telemetry/tracing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type sesClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES error codes that retrying will not fix.
var permanentSESErrors = map[string]bool{
	"MessageRejected":                    true,
	"MailFromDomainNotVerifiedException": true,
	"ConfigurationSetDoesNotExist":       true,
	"InvalidParameterValue":              true,
}

type SESGateway struct {
	client sesClient
	sender string
}

func NewSESGateway(ctx context.Context, region, sender string) (*SESGateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESGatewayWithClient(ses.NewFromConfig(cfg), sender), nil
}

func NewSESGatewayWithClient(client sesClient, sender string) *SESGateway {
	return &SESGateway{
		client: client,
		sender: sender,
	}
}

func (g *SESGateway) Send(ctx context.Context, msg Message) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "delivery.ses.send")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	out, err := g.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(g.sender),
	})
	if err != nil {
		return &DeliveryError{To: msg.To, Transient: isTransientSESError(err), Err: err}
	}

	log.Debugf("ses: sent [%s] to %s, message id %s", msg.Subject, msg.To, aws.ToString(out.MessageId))
	return nil
}

func isTransientSESError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return !permanentSESErrors[apiErr.ErrorCode()]
	}
	return true
}
