package telemetry

import (
	"fmt"
	"time"

	"shopcart/internal/config"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// Reporter forwards unexpected errors to an error tracking backend.
type Reporter interface {
	CaptureError(err error, tags map[string]string)
}

// nopReporter drops everything.
type nopReporter struct{}

func (nopReporter) CaptureError(error, map[string]string) {}

// NopReporter returns a Reporter that does nothing.
func NopReporter() Reporter {
	return nopReporter{}
}

// sentryReporter sends errors to Sentry.
type sentryReporter struct {
	hub *sentry.Hub
}

// InitSentry initialises Sentry and returns a reporter plus a flush function
// for shutdown. Without a DSN it returns a no-op reporter.
func InitSentry(cfg config.SentryConfig, release string, logger zerolog.Logger) (Reporter, func(), error) {
	if cfg.DSN == "" {
		logger.Info().Msg("sentry disabled (no DSN configured)")
		return NopReporter(), func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
		SampleRate:  cfg.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise sentry: %w", err)
	}

	reporter := newSentryReporter(client)

	logger.Info().
		Str("environment", cfg.Environment).
		Float64("sample_rate", cfg.SampleRate).
		Msg("sentry initialised")

	flush := func() {
		reporter.hub.Flush(2 * time.Second)
	}

	return reporter, flush, nil
}

func newSentryReporter(client *sentry.Client) *sentryReporter {
	return &sentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}
}

// CaptureError reports err with the given tags.
func (r *sentryReporter) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	// Each call gets its own scope stack; callers report concurrently.
	hub := r.hub.Clone()
	hub.Scope().SetTags(tags)
	hub.CaptureException(err)
}
