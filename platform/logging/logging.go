package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger. format is "json" or "text".
func Init(level, format string) error {
	return Configure(log.StandardLogger(), os.Stdout, level, format)
}

func Configure(l *log.Logger, out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch format {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q: want json or text", format)
	}
	l.SetOutput(out)
	l.SetLevel(lvl)
	return nil
}

// For returns an entry tagged with the component name.
func For(component string) *log.Entry {
	return log.WithField("component", component)
}
