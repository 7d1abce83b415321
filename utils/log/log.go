package log

import (
	"os"
	"time"

	"github.com/Luismorlan/instag/utils/dotenv"
	ddhook "github.com/bin3377/logrus-datadog-hook"
	"github.com/sirupsen/logrus"
)

const (
	datadogUSHost    = "http-intake.logs.datadoghq.com"
	syncFrequencySec = 30
	syncRetry        = 3

	defaultServiceName = "instag"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger(os.Getenv("INSTAG_SERVICE"))
}

// InitLogger (re)creates the global logger. Binaries call it once after env
// files are loaded so that the service name and datadog key are picked up.
func InitLogger(serviceName string) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	logger = logrus.New()

	apiKey := os.Getenv("DATADOG_API_KEY")
	if dotenv.IsProdEnv() && apiKey != "" {
		hook := ddhook.NewHook(
			datadogUSHost,
			apiKey,
			syncFrequencySec*time.Second,
			syncRetry,
			logrus.InfoLevel,
			&logrus.JSONFormatter{},
			ddhook.Options{},
		)
		logger.Hooks.Add(hook)
	}

	// Also send log to stderr, without json formatter for better readability
	logger.SetOutput(os.Stderr)

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	Log = logger.WithFields(
		logrus.Fields{"service": serviceName, "is_development": !dotenv.IsProdEnv()},
	)
}
