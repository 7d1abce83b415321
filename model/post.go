package model

import (
	"time"
)

/*

Post is one imported feed post

Id: primary key, a generated uuid, opaque to callers
CreatedAt: time when entity is created
UpdatedAt: time when entity is last changed, refreshed on every re-import

ExternalId: the platform's id of the post, unique. Used to find already imported posts
Shortcode: the platform's short identifier, used as title fallback and to fetch carousel details
Owner: handle the post was imported for, or the platform's owner id
Title: derived from caption, at most 10 words
Caption: caption with hashtag tokens stripped
Type: GraphImage or GraphSidecar
Date: UTC timestamp of the post in storage format 2006-01-02T15:04:05
Likes, ViewCount: volatile counters, the only fields updated on re-import
Sticky: pinned on top of listings, default false
Status: published flag, default true
Media: stored media files, "has-many" relation
Tags: hashtag terms, "many-to-many" relation
*/

type Post struct {
	Id         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ExternalId string `gorm:"uniqueIndex;not null"`
	Shortcode  string
	Owner      string
	Title      string
	Caption    string
	Type       PostType
	Date       string `gorm:"index"`
	Likes      int64
	ViewCount  int64
	Sticky     bool    `gorm:"default:false"`
	Status     bool    `gorm:"default:true"`
	Media      []Media `copier:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tags       []*Tag  `copier:"-" json:"tags" gorm:"many2many:post_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type PostType string

const (
	PostTypeImage    PostType = "GraphImage"
	PostTypeCarousel PostType = "GraphSidecar"
	PostTypeVideo    PostType = "GraphVideo"
)

func (t PostType) IsCarousel() bool {
	return t == PostTypeCarousel
}

// PostDateLayout is the storage format of Post.Date.
const PostDateLayout = "2006-01-02T15:04:05"
