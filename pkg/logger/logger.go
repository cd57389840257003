package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger — интерфейс логгера, используемый во всех слоях приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	Sync() error
}

// Options настраивает логгер.
type Options struct {
	Mode     string // "production" или "development"
	Level    string // debug, info, warn, error
	Filename string // если задан, логи дублируются в файл с ротацией
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// OptionsFromEnv читает настройки логгера из LOG_MODE, LOG_LEVEL и LOG_FILE.
// Логгер создаётся до загрузки остальной конфигурации, поэтому читает окружение сам.
func OptionsFromEnv() Options {
	return Options{
		Mode:     os.Getenv("LOG_MODE"),
		Level:    os.Getenv("LOG_LEVEL"),
		Filename: os.Getenv("LOG_FILE"),
	}
}

// NewZapLogger создаёт логгер на базе zap.
func NewZapLogger(opts Options) Logger {
	var zapConfig zap.Config
	if opts.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(strings.ToLower(opts.Level)); err == nil && opts.Level != "" {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}

	var log *zap.Logger
	if opts.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(rotator),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		log, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			log = zap.NewExample()
		}
	}

	return &zapLogger{sugar: log.Sugar()}
}

// NewNop возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Errorf(err error, format string, args ...any) {
	l.sugar.With(zap.Error(err)).Errorf(format, args...)
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
