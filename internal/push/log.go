package push

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes would-be notifications to the log instead of delivering
// them. Used when no Firebase credentials are configured, so the scheduler
// can run locally against a real database.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (*Report, error) {
	s.log.Info().
		Int("tokens", len(tokens)).
		Str("title", title).
		Str("body", body).
		Interface("data", data).
		Msg("push delivery skipped (no credentials configured)")
	return &Report{Delivered: len(tokens)}, nil
}
