package builder

import (
	"context"

	"github.com/Luismorlan/instag/app_setting"
	"github.com/Luismorlan/instag/cache"
	"github.com/Luismorlan/instag/collector"
	"github.com/Luismorlan/instag/collector/clients"
	"github.com/Luismorlan/instag/collector/file_store"
	"github.com/Luismorlan/instag/importer"
	"github.com/Luismorlan/instag/store"
	"github.com/Luismorlan/instag/utils"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ImporterBuilder wires the import pipeline from settings. Fields left nil are
// created from settings and env, so tests can inject any of them.
type ImporterBuilder struct {
	Setting app_setting.InstagAppSetting

	DB         *gorm.DB
	PageCache  cache.PageCache
	FileStore  file_store.CollectedFileStore
	FeedSource clients.FeedSource

	RunnerOptions []importer.BatchRunnerOption
}

func NewImporterBuilder(setting app_setting.InstagAppSetting) *ImporterBuilder {
	return &ImporterBuilder{Setting: setting}
}

// Build validates the settings, connects the stores and returns the importer.
func (b *ImporterBuilder) Build(ctx context.Context) (*importer.Importer, error) {
	if err := b.Setting.Validate(); err != nil {
		return nil, err
	}

	if b.DB == nil {
		db, err := utils.GetDBConnection()
		if err != nil {
			return nil, utils.ImmediatePrintError(errors.Wrap(err, "fail to connect to database"))
		}
		b.DB = db
	}
	if err := utils.DatabaseSetupAndMigration(b.DB); err != nil {
		return nil, utils.ImmediatePrintError(errors.Wrap(err, "fail to migrate database"))
	}
	entities := store.NewGormStore(b.DB)

	if b.PageCache == nil {
		pageCache, err := NewPageCache(ctx, b.Setting)
		if err != nil {
			return nil, err
		}
		b.PageCache = pageCache
	}
	if b.FileStore == nil {
		fileStore, err := NewFileStore(b.Setting)
		if err != nil {
			return nil, err
		}
		b.FileStore = fileStore
	}
	if b.FeedSource == nil {
		b.FeedSource = NewFeedSource(b.Setting)
	}

	return b.assemble(entities), nil
}

func (b *ImporterBuilder) assemble(entities store.EntityStore) *importer.Importer {
	walker := collector.NewFeedWalker(b.FeedSource, clients.Credentials{
		Username: b.Setting.USERNAME,
		Password: b.Setting.PASSWORD,
	}, b.Setting.PageDelay())
	media := collector.NewMediaResolver(b.FeedSource, clients.NewDefaultHttpClient(), b.FileStore)
	engine := importer.NewUpsertEngine(entities, media, importer.NewTagResolver(entities))

	opts := append([]importer.BatchRunnerOption{
		importer.WithCacheLifetime(b.Setting.CacheLifetime()),
		importer.WithChunkSize(b.Setting.CHUNK_SIZE),
	}, b.RunnerOptions...)
	runner := importer.NewBatchRunner(walker, b.PageCache, engine, opts...)
	return importer.NewImporter(runner, entities)
}

// NewPageCache returns the redis cache when redis is configured in env, the
// file cache under CACHE_DIR otherwise.
func NewPageCache(ctx context.Context, setting app_setting.InstagAppSetting) (cache.PageCache, error) {
	if utils.IsRedisConfigured() {
		client, err := utils.GetRedisClient(ctx)
		if err != nil {
			return nil, err
		}
		Logger.Log.Info("using redis page cache")
		return cache.NewRedisPageCache(client), nil
	}
	Logger.Log.Infof("using file page cache at %s", setting.CACHE_DIR)
	fileCache, err := cache.NewFilePageCache(setting.CACHE_DIR)
	if err != nil {
		return nil, err
	}
	return fileCache, nil
}

func NewFileStore(setting app_setting.InstagAppSetting) (file_store.CollectedFileStore, error) {
	switch setting.MEDIA_STORAGE {
	case app_setting.MediaStorageS3:
		s3Store, err := file_store.NewS3FileStore(setting.S3_BUCKET, setting.S3_REGION, setting.S3_PUBLIC_URL_PREFIX)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	case app_setting.MediaStorageLocal:
		localStore, err := file_store.NewLocalFileStore(setting.MEDIA_DIR)
		if err != nil {
			return nil, err
		}
		return localStore, nil
	}
	return nil, errors.Errorf("unknown MEDIA_STORAGE %q", setting.MEDIA_STORAGE)
}

func NewFeedSource(setting app_setting.InstagAppSetting) clients.FeedSource {
	return clients.NewInstagramGatewayClient(setting.FEED_GATEWAY_URL, clients.NewDefaultHttpClient())
}
