package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var once sync.Once
var zLogger zerolog.Logger
var DebugMode bool

type LevelWriter zerolog.LevelWriter

type LevelWriterAdapter struct {
	zerolog.LevelWriterAdapter
	Level zerolog.Level
}

/*
zerolog allows for logging at the following levels (from highest to lowest):
	panic (zerolog.PanicLevel, 5)
	fatal (zerolog.FatalLevel, 4)
	error (zerolog.ErrorLevel, 3)
	warn  (zerolog.WarnLevel, 2)
	info  (zerolog.InfoLevel, 1)
	debug (zerolog.DebugLevel, 0)
	trace (zerolog.TraceLevel, -1)
*/

// GetLogger returns the shared logger instance, initializing it on first use.
// Unlike a daemon, this pipeline has no required environment bootstrap: the
// level comes from config.Config.Logging.Level (or DebugMode/SetLevel),
// never from an unset-env-var-is-fatal check.
func GetLogger() zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

		var output io.Writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}

		logLevel := zerolog.InfoLevel
		if DebugMode {
			logLevel = zerolog.DebugLevel
		}

		var stdWriter LevelWriter = LevelWriterAdapter{Level: logLevel, LevelWriterAdapter: zerolog.LevelWriterAdapter{Writer: output}}
		stdLogger := &zerolog.FilteredLevelWriter{
			Writer: stdWriter,
			Level:  logLevel,
		}

		zLogger = zerolog.New(stdLogger).With().Timestamp().Logger()
	})
	return zLogger
}

// SetLevel reinitializes the shared logger at the given level. The analyze
// command calls it once, after loading the config and before the pipeline
// runs.
func SetLevel(l zerolog.Level) {
	DebugMode = l <= zerolog.DebugLevel
	once = sync.Once{}
	zLogger = zerolog.Logger{}
	_ = GetLogger()
	zLoggerLevel := l
	zLogger = zLogger.Level(zLoggerLevel)
}

// WriteLevel writes the given bytes to the writer if the level is greater than or equal to the LevelWriterAdapter's Level
func (lw LevelWriterAdapter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	if l >= lw.Level {
		return lw.Write(p)
	}
	return 0, nil
}
