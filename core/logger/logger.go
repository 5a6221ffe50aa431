package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func Init(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// fields converts a variadic key-value list into logrus fields. A trailing
// value without a key (commonly a bare error) is stored under "error".
func fields(args []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			if err, ok := args[i].(error); ok {
				f["error"] = err.Error()
			} else {
				f["arg"] = fmt.Sprintf("%v", args[i])
			}
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		if err, isErr := args[i+1].(error); isErr && err != nil {
			f[key] = err.Error()
			continue
		}
		f[key] = args[i+1]
	}
	return f
}

func Debug(msg string, args ...any) {
	log.WithFields(fields(args)).Debug(msg)
}

func Info(msg string, args ...any) {
	log.WithFields(fields(args)).Info(msg)
}

func Warn(msg string, args ...any) {
	log.WithFields(fields(args)).Warn(msg)
}

func Error(msg string, args ...any) {
	log.WithFields(fields(args)).Error(msg)
}
