package main

import (
	"context"
	"os"

	"github.com/Luismorlan/instag/app_setting"
	"github.com/Luismorlan/instag/builder"
	"github.com/Luismorlan/instag/importer"
	"github.com/Luismorlan/instag/utils/dotenv"
	Logger "github.com/Luismorlan/instag/utils/log"
)

func init() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	Logger.InitLogger("instag_cli")
}

func buildImporter(ctx context.Context, setting app_setting.InstagAppSetting) (*importer.Importer, error) {
	return builder.NewImporterBuilder(setting).Build(ctx)
}

func main() {
	app := &cliApp{
		out:   os.Stdout,
		in:    os.Stdin,
		build: buildImporter,
	}
	if err := newRootCommand(app).ExecuteContext(context.Background()); err != nil {
		Logger.Log.Errorln(err)
		os.Exit(1)
	}
}
