package cli

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/stride-agent/stride/config"
	"github.com/stride-agent/stride/logging"
	"github.com/stride-agent/stride/model"
	anthropicmodel "github.com/stride-agent/stride/model/anthropic"
	openaimodel "github.com/stride-agent/stride/model/openai"
	"github.com/stride-agent/stride/progress"
)

// setup loads configuration and constructs the shared dependencies every
// command needs.
func setup() (*config.Config, logging.Logger, progress.Sink, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	sink := progress.MultiSink{
		progress.NewConsoleSink(),
		progress.NewLogSink(logger),
	}

	return cfg, logger, sink, nil
}

// buildModel constructs the configured language model provider.
func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = cfg.Model.MaxTokens
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxCompletionTokens = cfg.Model.MaxTokens
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}
