package logging_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/muhamedRadwan/subscriptions/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Default().Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Default().Error().Msg("error message")

	output := buf.String()
	for _, want := range []string{"info message", "warning message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestErrEvent(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf))

	logging.Err(errors.New("disk full")).Str("tag", "config").Msg("failed")

	if !strings.Contains(buf.String(), `"error":"disk full"`) {
		t.Errorf("Expected error field, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"tag":"config"`) {
		t.Errorf("Expected structured field, got: %s", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNopLogger()
	logger.Info().Msg("discarded")
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("Expected disabled level, got %v", logger.GetLevel())
	}
}
