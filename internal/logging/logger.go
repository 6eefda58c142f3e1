package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New — сконфигурированный zap-логгер: JSON в prod, консоль в dev.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
