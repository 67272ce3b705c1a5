package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger: JSON production output for prod-like
// environments, human-readable development output everywhere else.
func New(appEnv string) (*zap.Logger, error) {
	if IsProdLike(appEnv) {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}
