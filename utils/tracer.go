package utils

import (
	"github.com/Luismorlan/instag/utils/dotenv"
	Logger "github.com/Luismorlan/instag/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func ddEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for the given service.
func StartTracer(serviceName string) {
	tracer.Start(
		tracer.WithService(serviceName),
		tracer.WithEnv(ddEnv()),
	)
	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
