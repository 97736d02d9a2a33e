package utils

import (
	"go.uber.org/zap"
)

// NewLogger builds the pipeline's sugared logger. level accepts the zap
// level names ("debug", "info", ...); empty keeps the config default.
func NewLogger(dev bool, level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}
