package workflow

import (
	"log/slog"

	"github.com/JaimeStill/triage/internal/classifier"
	"github.com/JaimeStill/triage/pkg/events"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure.
type Runtime struct {
	Classifier *classifier.Classifier
	Events     events.Publisher
	Logger     *slog.Logger
}
