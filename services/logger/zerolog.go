package logsvc

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

// ZerologLogger writes structured console logs; used in DEV and TEST.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ core.Logger = (*ZerologLogger)(nil)

func NewZerologLogger(conf *core.Config) *ZerologLogger {
	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().
		Timestamp().
		Str("app", conf.AppName).
		Logger()
	return &ZerologLogger{log: logger}
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l ZerologLogger) event(ev *zerolog.Event, args []interface{}) *zerolog.Event {
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			ev = ev.Str("user_id", v.ID).Str("username", v.Username)
		case error:
			ev = ev.Err(v)
		case map[string]interface{}:
			ev = ev.Fields(v)
		default:
			ev = ev.Interface("extra", v)
		}
	}
	return ev
}

func (l ZerologLogger) Debug(msg string, args ...interface{}) {
	l.event(l.log.Debug(), args).Msg(msg)
}

func (l ZerologLogger) Info(msg string, args ...interface{}) {
	l.event(l.log.Info(), args).Msg(msg)
}

func (l ZerologLogger) Warn(msg string, args ...interface{}) {
	l.event(l.log.Warn(), args).Msg(msg)
}

func (l ZerologLogger) Error(msg string, args ...interface{}) {
	l.event(l.log.Error(), args).Msg(msg)
}

func (l ZerologLogger) Fatal(msg string, args ...interface{}) {
	l.event(l.log.Fatal(), args).Msg(msg)
}
