package model

import "time"

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

const (
	MediaBundleImage = "instagram_image"
	MediaBundleVideo = "instagram_video"
)

// Media is a downloaded asset attached to a Post. FileKey is the key returned
// by the file store, FileUrl where it can be served from.
type Media struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	PostID    string `gorm:"index"`
	Kind      MediaKind
	Bundle    string
	SourceUrl string
	FileKey   string
	FileUrl   string
}

// MediaItem is a media descriptor before download.
type MediaItem struct {
	Kind      MediaKind `json:"kind"`
	Bundle    string    `json:"bundle"`
	SourceUrl string    `json:"source_url"`
}

func NewMediaItem(videoUrl, displayUrl string) MediaItem {
	if videoUrl != "" {
		return MediaItem{Kind: MediaKindVideo, Bundle: MediaBundleVideo, SourceUrl: videoUrl}
	}
	return MediaItem{Kind: MediaKindImage, Bundle: MediaBundleImage, SourceUrl: displayUrl}
}
