package cmd

import (
	"fmt"
	"os"

	"github.com/cmmiller26/ai-fun-token-wheel/config"
	"github.com/cmmiller26/ai-fun-token-wheel/model"
)

// loadModel trains the vocabulary model from the configured corpus file, or
// from the embedded default corpus when none is configured.
func loadModel(cfg config.ModelConfig) (*model.NGram, error) {
	if cfg.CorpusPath == "" {
		return model.Default()
	}

	order := cfg.Order
	if order <= 0 {
		order = model.DefaultOrder
	}
	data, err := os.ReadFile(cfg.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return model.Train(string(data), order)
}
