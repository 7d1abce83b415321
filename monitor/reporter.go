package monitor

import (
	"context"

	"github.com/DataDog/datadog-go/statsd"
	Logger "github.com/Luismorlan/instag/utils/log"
)

type ReporterConfig struct {
	Name string
}

// Counter is the part of the statsd client the reporter uses.
type Counter interface {
	Incr(name string, tags []string, rate float64) error
}

// Reporter's job is to listen to import events and aggregate results,
// sending to Datadog for monitoring purpose.
type Reporter struct {
	Config ReporterConfig

	Statsd Counter

	EventBus *EventBus
}

func NewReporter(config ReporterConfig, statsd Counter, e *EventBus) *Reporter {
	return &Reporter{
		Config:   config,
		Statsd:   statsd,
		EventBus: e,
	}
}

const DefaultDogStatsdAddr = "127.0.0.1:8125"

// NewDogStatsdClient connects to the datadog agent at addr, the local agent
// when addr is empty.
func NewDogStatsdClient(addr string) (*statsd.Client, error) {
	if addr == "" {
		addr = DefaultDogStatsdAddr
	}
	return statsd.New(addr)
}

// Report one item event to datadog.
func ReportItemEvent(event ItemEvent, counter Counter) {
	err := counter.Incr(DDOG_IMPORT_ITEM_COUNTER,
		[]string{
			"kind:" + event.Kind,
			"target:" + event.Target,
			"outcome:" + string(event.Outcome),
		}, 1)
	if err != nil {
		Logger.Log.Infoln("cannot report import item", err)
	}
}

func (r *Reporter) RunModule(ctx context.Context) error {
	events, err := r.EventBus.SubscribeItemEvents(ctx)
	if err != nil {
		return err
	}
	for event := range events {
		ReportItemEvent(event, r.Statsd)
	}
	return nil
}

func (r *Reporter) Name() string {
	return r.Config.Name
}
