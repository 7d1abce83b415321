package model

import "time"

// RawPost is a post as the feed source returns it. Optional fields are
// pointers, the normalizer owns the defaults.
type RawPost struct {
	Id             string        `json:"id"`
	Shortcode      string        `json:"shortcode"`
	OwnerId        string        `json:"owner_id"`
	Caption        *string       `json:"caption,omitempty"`
	TakenAt        time.Time     `json:"taken_at"`
	Likes          *int64        `json:"likes,omitempty"`
	VideoViewCount *int64        `json:"video_view_count,omitempty"`
	Type           PostType      `json:"type"`
	VideoUrl       string        `json:"video_url,omitempty"`
	DisplayUrl     string        `json:"display_url,omitempty"`
	SidecarItems   []SidecarItem `json:"sidecar_items,omitempty"`
	Hashtags       []string      `json:"hashtags,omitempty"`
}

type DisplayResource struct {
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type SidecarItem struct {
	Id               string            `json:"id"`
	VideoUrl         string            `json:"video_url,omitempty"`
	DisplayResources []DisplayResource `json:"display_resources,omitempty"`
}

// MediaDetailed is the detailed view of a post, needed for carousel items.
type MediaDetailed struct {
	Shortcode    string        `json:"shortcode"`
	SidecarItems []SidecarItem `json:"sidecar_items"`
}

// ImportablePost is a normalized RawPost, ready to be stored.
type ImportablePost struct {
	ExternalId string
	Shortcode  string
	Owner      string
	Title      string
	Caption    string
	Type       PostType
	Date       string
	Likes      int64
	ViewCount  int64
	Media      []MediaItem
	Tags       []string
}
