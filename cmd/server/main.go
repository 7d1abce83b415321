package main

import (
	"context"
	"flag"
	"os"

	"github.com/Luismorlan/instag/app_setting"
	"github.com/Luismorlan/instag/builder"
	"github.com/Luismorlan/instag/importer"
	"github.com/Luismorlan/instag/monitor"
	"github.com/Luismorlan/instag/server"
	"github.com/Luismorlan/instag/utils"
	"github.com/Luismorlan/instag/utils/dotenv"
	. "github.com/Luismorlan/instag/utils/log"
)

const ServiceName = "instag_api_server"

var (
	AppSettingPath *string
	ListenAddr     *string
)

// init() will always be called on before the execution of main function.
func init() {
	AppSettingPath = flag.String("app_setting_path", "", "path to instag app setting yaml")
	ListenAddr = flag.String("addr", ":8080", "address the api server listens on")
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	flag.Parse()
	InitLogger(ServiceName)
	defer cleanup()

	utils.StartTracer(ServiceName)
	if err := utils.StartProfiler(ServiceName); err != nil {
		Log.Warnln("profiler not started:", err)
	}

	setting, err := app_setting.ParseInstagAppSetting(*AppSettingPath)
	if err != nil {
		Log.Fatalln(err)
	}

	ctx := context.Background()
	eventBus := monitor.NewEventBus()
	statsd, err := monitor.NewDogStatsdClient(setting.DOGSTATSD_ADDR)
	if err != nil {
		Log.Fatalln("fail to create dogstatsd client:", err)
	}
	engine := monitor.NewEngine(ctx,
		// Reporter reports import outcomes to datadog for monitoring purpose.
		monitor.NewReporter(monitor.ReporterConfig{Name: "reporter"}, statsd, eventBus),
	)
	engine.Start()
	defer engine.Shutdown()

	b := builder.NewImporterBuilder(setting)
	b.RunnerOptions = []importer.BatchRunnerOption{importer.WithEventPublisher(eventBus)}
	imp, err := b.Build(ctx)
	if err != nil {
		Log.Fatalln("fail to build importer:", err)
	}
	defer b.FileStore.CleanUp()

	router := server.NewRouter(server.NewHandlers(imp, setting), server.RouterConfig{
		ServiceName: ServiceName,
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
	})

	Log.Info("api server starts up")
	if err := router.Run(*ListenAddr); err != nil {
		Log.Errorln("api server stopped:", err)
	}
}
