package observability

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger tagged with the service name and a
// fresh run id, so every event from one scheduled invocation can be grouped
// in the log sink. APP_ENV=dev (or development) uses a human-friendly
// console writer; everything else emits JSON.
func NewLogger(env string) zerolog.Logger {
	l := zerolog.New(os.Stdout)
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return l.With().
		Timestamp().
		Str("service", "review-ingestor").
		Str("run_id", uuid.NewString()).
		Logger()
}
