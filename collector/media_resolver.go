package collector

import (
	"context"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/Luismorlan/instag/collector/clients"
	"github.com/Luismorlan/instag/collector/file_store"
	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/utils"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MediaDirPrefix = "instagram"
	mediaDirLayout = "2006-01"
)

// Downloader fetches a media url. *clients.HttpClient implements it.
type Downloader interface {
	Get(ctx context.Context, uri string) (*http.Response, error)
}

// MediaResolver finds the concrete media urls of a post and stores them.
type MediaResolver struct {
	source     clients.FeedSource
	downloader Downloader
	store      file_store.CollectedFileStore
	now        func() time.Time
}

func NewMediaResolver(source clients.FeedSource, downloader Downloader, store file_store.CollectedFileStore) *MediaResolver {
	return &MediaResolver{source: source, downloader: downloader, store: store, now: time.Now}
}

// SetClock overrides the clock that picks the YYYY-MM directory.
func (r *MediaResolver) SetClock(now func() time.Time) {
	r.now = now
}

// ResolveMediaItems returns one item for a single media post, one per sidecar
// entry for a carousel. A failed carousel detail fetch is MediaFetchFailed.
func (r *MediaResolver) ResolveMediaItems(ctx context.Context, raw model.RawPost) ([]model.MediaItem, error) {
	if !raw.Type.IsCarousel() {
		item := model.NewMediaItem(raw.VideoUrl, raw.DisplayUrl)
		if item.SourceUrl == "" {
			return []model.MediaItem{}, nil
		}
		return []model.MediaItem{item}, nil
	}

	detail, err := r.source.GetMediaDetailed(ctx, raw.Shortcode)
	if err != nil {
		return nil, model.NewImportError(model.MediaFetchFailed, raw.Shortcode, err)
	}
	items := make([]model.MediaItem, 0, len(detail.SidecarItems))
	for _, sidecar := range detail.SidecarItems {
		displayUrl := ""
		if len(sidecar.DisplayResources) > 0 {
			displayUrl = sidecar.DisplayResources[0].Url
		}
		item := model.NewMediaItem(sidecar.VideoUrl, displayUrl)
		if item.SourceUrl == "" {
			Logger.Log.WithFields(logrus.Fields{"shortcode": raw.Shortcode, "sidecar": sidecar.Id}).
				Warn("sidecar item has no media url, skipped")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// MediaDirectory is the store directory media downloaded at t goes to.
func MediaDirectory(t time.Time) string {
	return path.Join(MediaDirPrefix, t.Format(mediaDirLayout))
}

// Download stores every item. Items that fail are skipped and reported as
// MediaDownloadFailed errors; the others are returned in order.
func (r *MediaResolver) Download(ctx context.Context, items []model.MediaItem) ([]model.Media, []error) {
	stored := []model.Media{}
	var errs []error
	if len(items) == 0 {
		return stored, nil
	}

	dir := MediaDirectory(r.now())
	if err := r.store.EnsureDirectory(dir); err != nil {
		for _, item := range items {
			errs = append(errs, model.NewImportError(model.MediaDownloadFailed, item.SourceUrl, err))
		}
		return stored, errs
	}

	for _, item := range items {
		media, err := r.downloadOne(ctx, dir, item)
		if err != nil {
			Logger.Log.WithFields(logrus.Fields{"url": item.SourceUrl}).Warnln("fail to download media:", err)
			errs = append(errs, model.NewImportError(model.MediaDownloadFailed, item.SourceUrl, err))
			continue
		}
		stored = append(stored, *media)
	}
	return stored, errs
}

// defaultExtension names files whose url path carries no extension.
func defaultExtension(kind model.MediaKind) string {
	if kind == model.MediaKindVideo {
		return ".mp4"
	}
	return ".jpg"
}

func (r *MediaResolver) downloadOne(ctx context.Context, dir string, item model.MediaItem) (*model.Media, error) {
	fileName, err := utils.UrlPathToFileName(item.SourceUrl)
	if err != nil {
		return nil, err
	}
	if utils.GetUrlExtNameWithDot(item.SourceUrl) == "" {
		fileName += defaultExtension(item.Kind)
	}
	res, err := r.downloader.Get(ctx, item.SourceUrl)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	key, err := r.store.WriteData(res.Body, path.Join(dir, fileName))
	if err != nil {
		return nil, errors.Wrap(err, "fail to write media file")
	}
	// drain whatever the store did not read so the connection can be reused
	io.Copy(io.Discard, res.Body)

	return &model.Media{
		Id:        uuid.New().String(),
		Kind:      item.Kind,
		Bundle:    item.Bundle,
		SourceUrl: item.SourceUrl,
		FileKey:   key,
		FileUrl:   r.store.GetUrlFromKey(key),
	}, nil
}

// Discard deletes the stored files of media that ended up attached to no
// post. Files referenced by keep are left alone.
func (r *MediaResolver) Discard(media []model.Media, keep []model.Media) {
	kept := map[string]bool{}
	for _, m := range keep {
		kept[m.FileKey] = true
	}
	for _, m := range media {
		if m.FileKey == "" || kept[m.FileKey] {
			continue
		}
		if err := r.store.Delete(m.FileKey); err != nil {
			Logger.Log.WithFields(logrus.Fields{"key": m.FileKey}).Warnln("fail to discard media file:", err)
		}
	}
}

// Resolve runs ResolveMediaItems then Download. A MediaFetchFailed error is
// returned among the warnings with no media.
func (r *MediaResolver) Resolve(ctx context.Context, raw model.RawPost) ([]model.Media, []error) {
	items, err := r.ResolveMediaItems(ctx, raw)
	if err != nil {
		Logger.Log.WithFields(logrus.Fields{"shortcode": raw.Shortcode}).Warnln("fail to resolve media:", err)
		return []model.Media{}, []error{err}
	}
	return r.Download(ctx, items)
}
