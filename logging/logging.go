package logging

import "go.uber.org/zap"

// New creates a new zap logger. Development gets the human-readable example
// encoder, everything else gets the production JSON encoder.
func New(environment string) *zap.SugaredLogger {
	if environment == "production" {
		logger, _ := zap.NewProduction()
		return logger.Sugar()
	}
	return zap.NewExample().Sugar()
}
