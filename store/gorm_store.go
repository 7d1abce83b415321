package store

import (
	"context"

	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the EntityStore backed by postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindPostByExternalId(ctx context.Context, externalId string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).Preload("Media").Where("external_id = ?", externalId).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to query post "+externalId)
	}
	return &post, nil
}

func (s *GormStore) CreatePost(ctx context.Context, post *model.Post) (bool, error) {
	created := false
	var txn utils.GormTransaction = func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).Omit(clause.Associations).Create(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		if len(post.Media) > 0 {
			for i := range post.Media {
				post.Media[i].PostID = post.Id
			}
			if err := tx.Create(&post.Media).Error; err != nil {
				return err
			}
		}
		if len(post.Tags) > 0 {
			if err := tx.Model(post).Association("Tags").Append(post.Tags); err != nil {
				return err
			}
		}
		return nil
	}
	if err := s.db.WithContext(ctx).Transaction(txn); err != nil {
		return false, errors.Wrap(err, "fail to create post "+post.ExternalId)
	}
	return created, nil
}

func (s *GormStore) UpdatePostCounters(ctx context.Context, post *model.Post) error {
	err := s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", post.Id).Updates(map[string]interface{}{
		"likes":      post.Likes,
		"view_count": post.ViewCount,
		"updated_at": post.UpdatedAt,
	}).Error
	return errors.Wrap(err, "fail to update post "+post.ExternalId)
}

func (s *GormStore) ListPosts(ctx context.Context, limit, offset int) ([]model.Post, error) {
	var posts []model.Post
	err := s.db.WithContext(ctx).
		Preload("Media").
		Preload("Tags").
		Order("date desc").
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list posts")
	}
	return posts, nil
}

func (s *GormStore) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Post{}).Count(&count).Error
	return count, errors.Wrap(err, "fail to count posts")
}

func (s *GormStore) DeleteAllPosts(ctx context.Context) (int64, error) {
	var deleted int64
	var txn utils.GormTransaction = func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags").Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Media{}).Error; err != nil {
			return err
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Post{})
		deleted = res.RowsAffected
		return res.Error
	}
	if err := s.db.WithContext(ctx).Transaction(txn); err != nil {
		return 0, errors.Wrap(err, "fail to delete posts")
	}
	return deleted, nil
}

func (s *GormStore) FindTagByName(ctx context.Context, vocabulary, name string) (*model.Tag, error) {
	var tag model.Tag
	err := s.db.WithContext(ctx).Where("vocabulary = ? AND name = ?", vocabulary, name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to query tag "+name)
	}
	return &tag, nil
}

func (s *GormStore) CreateTag(ctx context.Context, tag *model.Tag) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vocabulary"}, {Name: "name"}},
		DoNothing: true,
	}).Create(tag)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "fail to create tag "+tag.Name)
	}
	return res.RowsAffected > 0, nil
}
