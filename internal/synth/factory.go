package synth

import (
	"context"
	"fmt"

	"github.com/hyperjump/pdfqa/internal/config"
)

// New builds the synthesizer selected by cfg.Provider.
func New(ctx context.Context, cfg *config.SynthesisConfig) (Synthesizer, error) {
	switch cfg.Provider {
	case config.SynthExtractive, "":
		return NewExtractive(cfg.MaxAnswerSentences), nil
	case config.SynthOpenAI:
		return NewOpenAI(cfg.APIKey(), cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.Timeout)
	case config.SynthGemini:
		return NewGemini(ctx, cfg.APIKey(), cfg.Model, cfg.Temperature, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", cfg.Provider)
	}
}
