package assistant

import (
	"os"

	"go.uber.org/zap"
)

// loadTextFile reads a static prompt resource. An unreadable file is a
// warning, not a failure: the bot keeps running with empty content.
func loadTextFile(path string, logger *zap.Logger) string {
	if path == "" {
		return ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to load prompt file, using empty content",
			zap.Error(err),
			zap.String("path", path))
		return ""
	}
	logger.Info("Loaded prompt file", zap.String("path", path))
	return string(content)
}
