package helpers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// SetupLogger builds a logrus FieldLogger with the given level and fields.
// The text formatter is used unless jsonFormat is set.
func SetupLogger(logLevelStr string, jsonFormat bool, fields log.Fields) (log.FieldLogger, error) {
	logger := log.WithFields(fields)
	logLevel, err := log.ParseLevel(logLevelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", logLevelStr)
	}
	logger.Logger.Level = logLevel

	if jsonFormat {
		logger.Logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.Logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "01-02-2006 15:04:05",
		})
	}
	logger.Infof("setting the log level to %s", logLevel.String())
	return logger, nil
}

// SetFlagsFromEnv parses all registered flags in the given flagset,
// and if they are not already set it attempts to set their values from
// environment variables. Environment variables take the name of the flag but
// are UPPERCASE, and any dashes are replaced by underscores. Environment
// variables additionally are prefixed by the given string followed by
// and underscore. For example, if prefix=PREFIX: some-flag => PREFIX_SOME_FLAG
// A flag whose environment value does not parse keeps its previous value.
func SetFlagsFromEnv(fs *pflag.FlagSet, prefix string) (err error) {
	alreadySet := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		alreadySet[f.Name] = true
	})
	fs.VisitAll(func(f *pflag.Flag) {
		if !alreadySet[f.Name] {
			key := prefix + "_" + strings.ToUpper(strings.Replace(f.Name, "-", "_", -1))
			val := os.Getenv(key)
			if val != "" {
				prev := f.Value.String()
				if serr := fs.Set(f.Name, val); serr != nil {
					// a failed Set may have already overwritten the value
					f.Value.Set(prev)
					err = fmt.Errorf("invalid value %q for %s: %v", val, key, serr)
				}
			}
		}
	})
	return err
}

// SetupSignals returns a context cancelled on SIGINT or SIGTERM.
func SetupSignals(logger log.FieldLogger) context.Context {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sigs
		logger.Infof("got signal %s, performing shutdown", sig)
		cancel()
	}()
	return ctx
}
