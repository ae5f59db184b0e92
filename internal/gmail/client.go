package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
)

const (
	// userID addresses the authenticated account.
	userID = "me"

	operationSend = "messages.send"
)

// ErrEmptyMessage is returned when Send is given no bytes.
var ErrEmptyMessage = errors.New("message is empty")

// Client sends raw messages through the Gmail API.
type Client struct {
	store       google.CredentialStore
	serviceOpts []option.ClientOption
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithServiceOptions appends options used when constructing the Gmail
// service, such as a custom endpoint.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.serviceOpts = append(c.serviceOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Client authenticating with the credential in store.
func NewClient(store google.CredentialStore, opts ...Option) *Client {
	c := &Client{store: store}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.logger, "gmail")
	return c
}

// Send uploads raw, an RFC 5322 message, and returns the Gmail message ID.
// Recipients are taken from the message headers.
func (c *Client) Send(ctx context.Context, raw []byte) (id string, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operationSend)
	defer span.End()

	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operationSend, status, time.Since(start))
	}()

	if len(raw) == 0 {
		return "", ErrEmptyMessage
	}
	if _, ok := c.store.Load(ctx); !ok {
		return "", google.ErrNotConfigured
	}

	httpClient := google.NewHTTPClient(ctx, google.TokenSource(ctx, c.store))
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.serviceOpts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gmail service: %w", err)
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := svc.Users.Messages.Send(userID, msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug("message sent", slog.String("message_id", sent.Id))
	return sent.Id, nil
}
