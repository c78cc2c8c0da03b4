package logger

import (
	"context"
	"fmt"
	"time"

	"go-fwpm/internal/config"
	"go-fwpm/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the worker
type LogEntry struct {
	Level     zapcore.Level
	Message   string
	IpAddress string
	ImportID  string
	Caller    string
}

// logRecord is the stored shape in the logs collection
type logRecord struct {
	AppID        string    `bson:"app_id"`
	Message      string    `bson:"message"`
	IpAddress    string    `bson:"ip_address,omitempty"`
	ImportID     string    `bson:"import_id,omitempty"`
	Caller       string    `bson:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc"`
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appId      string
}

func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		collection: mongodb.DB.Collection("logs"),
		logChan:    make(chan LogEntry, 1000),
		appId:      cfg.AppId,
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks the caller; entries are dropped when the buffer is full
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = w.collection.InsertOne(ctx, w.toRecord(entry))
		cancel()
	}
}

func (w *DBLogWriter) toRecord(entry LogEntry) logRecord {
	return logRecord{
		AppID:        w.appId,
		Message:      entry.Message,
		IpAddress:    entry.IpAddress,
		ImportID:     entry.ImportID,
		Caller:       entry.Caller,
		LogLevelId:   mapLevelToInt(entry.Level),
		CreatedOnUtc: time.Now().UTC(),
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
