package analytics

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Collector = new(LogFileCollector)

// LogFileCollector appends activities as JSON lines through a dedicated zap
// core, separate from the process logger.
type LogFileCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileCollector(fileName string) (*LogFileCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	logger := zap.New(core)
	return &LogFileCollector{
		fileName: fileName,
		logger:   logger,
	}, nil
}

func (lc *LogFileCollector) RecordActivity(activity Activity) {
	if activity.ActivityID == "" {
		activity.ActivityID = uuid.New().String()
	}
	lc.logger.Info(string(activity.Kind),
		zap.String("activityId", activity.ActivityID),
		zap.String("leadId", activity.LeadID),
		zap.String("businessId", activity.BusinessID),
		zap.Any("detail", activity.Detail),
		zap.Time("at", activity.Timestamp))
}

var _ Collector = new(consoleCollector)

type consoleCollector struct{}

func (c *consoleCollector) RecordActivity(activity Activity) {
	zap.L().Info(string(activity.Kind),
		zap.String("leadId", activity.LeadID),
		zap.String("businessId", activity.BusinessID),
		zap.Any("detail", activity.Detail))
}
