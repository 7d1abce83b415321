package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luismorlan/instag/collector/clients"
	"github.com/Luismorlan/instag/collector/file_store"
	"github.com/Luismorlan/instag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v/broken.jpg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("content of " + r.URL.Path))
	}))
}

func fixedClock() time.Time {
	return time.Date(2021, 9, 14, 0, 0, 0, 0, time.UTC)
}

func TestResolveMediaItemsSingle(t *testing.T) {
	r := NewMediaResolver(clients.NewFakeFeedSource(), clients.NewDefaultHttpClient(), file_store.NewFakeFileStore())

	items, err := r.ResolveMediaItems(context.Background(), model.RawPost{
		Type:       model.PostTypeImage,
		DisplayUrl: "https://cdn.example.com/v/a.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, []model.MediaItem{{
		Kind: model.MediaKindImage, Bundle: model.MediaBundleImage, SourceUrl: "https://cdn.example.com/v/a.jpg",
	}}, items)

	items, err = r.ResolveMediaItems(context.Background(), model.RawPost{Type: model.PostTypeImage})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestResolveMediaItemsCarousel(t *testing.T) {
	source := clients.NewFakeFeedSource()
	source.Details["CAR"] = &model.MediaDetailed{Shortcode: "CAR", SidecarItems: []model.SidecarItem{
		{Id: "1", DisplayResources: []model.DisplayResource{{Url: "https://cdn.example.com/v/1_640.jpg"}, {Url: "https://cdn.example.com/v/1_1080.jpg"}}},
		{Id: "2", VideoUrl: "https://cdn.example.com/v/2.mp4", DisplayResources: []model.DisplayResource{{Url: "https://cdn.example.com/v/2.jpg"}}},
		{Id: "3"},
	}}
	r := NewMediaResolver(source, clients.NewDefaultHttpClient(), file_store.NewFakeFileStore())

	items, err := r.ResolveMediaItems(context.Background(), model.RawPost{Shortcode: "CAR", Type: model.PostTypeCarousel})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://cdn.example.com/v/1_640.jpg", items[0].SourceUrl)
	assert.Equal(t, model.MediaBundleImage, items[0].Bundle)
	assert.Equal(t, "https://cdn.example.com/v/2.mp4", items[1].SourceUrl)
	assert.Equal(t, model.MediaBundleVideo, items[1].Bundle)
	assert.Equal(t, 1, source.DetailCalls)
}

func TestResolveMediaItemsCarouselDetailFailure(t *testing.T) {
	source := clients.NewFakeFeedSource()
	source.DetailErrs["CAR"] = errors.New("rate limited")
	r := NewMediaResolver(source, clients.NewDefaultHttpClient(), file_store.NewFakeFileStore())

	_, err := r.ResolveMediaItems(context.Background(), model.RawPost{Shortcode: "CAR", Type: model.PostTypeCarousel})
	require.Error(t, err)
	assert.True(t, model.IsImportErrorKind(err, model.MediaFetchFailed))

	media, warnings := r.Resolve(context.Background(), model.RawPost{Shortcode: "CAR", Type: model.PostTypeCarousel})
	assert.Empty(t, media)
	require.Len(t, warnings, 1)
	assert.True(t, model.IsImportErrorKind(warnings[0], model.MediaFetchFailed))
}

func TestResolveCarouselSkipsFailedDownload(t *testing.T) {
	server := newMediaServer()
	defer server.Close()

	source := clients.NewFakeFeedSource()
	source.Details["CAR"] = &model.MediaDetailed{Shortcode: "CAR", SidecarItems: []model.SidecarItem{
		{Id: "1", DisplayResources: []model.DisplayResource{{Url: server.URL + "/v/first.jpg"}}},
		{Id: "2", DisplayResources: []model.DisplayResource{{Url: server.URL + "/v/broken.jpg"}}},
		{Id: "3", VideoUrl: server.URL + "/v/third.mp4"},
	}}
	store := file_store.NewFakeFileStore()
	r := NewMediaResolver(source, clients.NewDefaultHttpClient(), store)
	r.SetClock(fixedClock)

	media, errs := r.Resolve(context.Background(), model.RawPost{Shortcode: "CAR", Type: model.PostTypeCarousel})

	require.Len(t, media, 2)
	require.Len(t, errs, 1)
	assert.True(t, model.IsImportErrorKind(errs[0], model.MediaDownloadFailed))

	assert.Equal(t, "instagram/2021-09/v-first.jpg", media[0].FileKey)
	assert.Equal(t, model.MediaBundleImage, media[0].Bundle)
	assert.Equal(t, "instagram/2021-09/v-third.mp4", media[1].FileKey)
	assert.Equal(t, model.MediaBundleVideo, media[1].Bundle)
	assert.Equal(t, "fake://instagram/2021-09/v-third.mp4", media[1].FileUrl)
	assert.NotEmpty(t, media[0].Id)

	assert.Equal(t, []string{"instagram/2021-09"}, store.Directories)
	assert.Equal(t, "content of /v/first.jpg", string(store.Files["instagram/2021-09/v-first.jpg"]))
	assert.Len(t, store.Files, 2)
}

func TestDownloadAddsExtensionWhenUrlHasNone(t *testing.T) {
	server := newMediaServer()
	defer server.Close()

	store := file_store.NewFakeFileStore()
	r := NewMediaResolver(clients.NewFakeFeedSource(), clients.NewDefaultHttpClient(), store)
	r.SetClock(fixedClock)

	media, errs := r.Download(context.Background(), []model.MediaItem{
		model.NewMediaItem("", server.URL+"/v/photo?stp=dst"),
		model.NewMediaItem(server.URL+"/v/clip", ""),
		model.NewMediaItem("", server.URL+"/v/kept.webp"),
	})
	require.Empty(t, errs)
	require.Len(t, media, 3)
	assert.Equal(t, "instagram/2021-09/v-photo.jpg", media[0].FileKey)
	assert.Equal(t, "instagram/2021-09/v-clip.mp4", media[1].FileKey)
	assert.Equal(t, "instagram/2021-09/v-kept.webp", media[2].FileKey)
	assert.Equal(t, "content of /v/clip", string(store.Files["instagram/2021-09/v-clip.mp4"]))
}

func TestMediaDirectory(t *testing.T) {
	assert.Equal(t, "instagram/2021-09", MediaDirectory(fixedClock()))
}
