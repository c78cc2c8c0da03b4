package logger

import (
	"go-fwpm/internal/config"
	"go-fwpm/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. With LOG_TO_DB enabled every
// entry is also copied to the logs collection.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Caller must be enabled for the func key to be populated
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if !cfg.LogToDB {
		return baseLogger.WithOptions(zap.AddCaller()), nil
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
