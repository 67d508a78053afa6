package logger

import (
	"go.uber.org/zap"
)

// New строит zap-логгер. format "json" - продакшн-конфигурация,
// иначе - консольная для разработки.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = lvl
	cfg.InitialFields = map[string]interface{}{
		"service": "budget_bot",
	}

	return cfg.Build()
}
