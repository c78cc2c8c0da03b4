package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore tees every entry to the async DB writer before handing it to the
// wrapped core.
type DBCore struct {
	zapcore.Core
	writer  *DBLogWriter
	context []zapcore.Field
}

func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// With keeps the tee when child loggers are created
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	ctxFields := make([]zapcore.Field, 0, len(c.context)+len(fields))
	ctxFields = append(ctxFields, c.context...)
	ctxFields = append(ctxFields, fields...)
	return &DBCore{
		Core:    c.Core.With(fields),
		writer:  c.writer,
		context: ctxFields,
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var importID, ip string
	for _, f := range append(c.context[:len(c.context):len(c.context)], fields...) {
		switch f.Key {
		case "import_id":
			importID = f.String
		case "ip":
			ip = f.String
		}
	}

	c.writer.AddLog(LogEntry{
		Level:     entry.Level,
		Message:   entry.Message,
		IpAddress: ip,
		ImportID:  importID,
		Caller:    entry.Caller.Function,
	})

	return c.Core.Write(entry, fields)
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
