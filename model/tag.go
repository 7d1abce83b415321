package model

import "time"

// TagVocabulary is the namespace all imported hashtags live in.
const TagVocabulary = "instagram_tags"

// Tag is a taxonomy term. (Vocabulary, Name) is unique.
type Tag struct {
	Id         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	Vocabulary string  `gorm:"uniqueIndex:idx_tag_vocabulary_name;not null"`
	Name       string  `gorm:"uniqueIndex:idx_tag_vocabulary_name;not null"`
	Posts      []*Post `json:"-" gorm:"many2many:post_tags;"`
}
