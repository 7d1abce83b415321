package store

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/instag/model"
	"github.com/Luismorlan/instag/utils"
	"github.com/Luismorlan/instag/utils/dotenv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGormStore(t *testing.T) *GormStore {
	dotenv.LoadDotEnvsInTests()
	if !utils.IsDatabaseConfigured() {
		t.Skip("DB_HOST not set")
	}
	db, _ := utils.CreateTempDB(t)
	return NewGormStore(db)
}

func testPost(externalId, date string) *model.Post {
	return &model.Post{
		Id:         uuid.New().String(),
		ExternalId: externalId,
		Shortcode:  "SC" + externalId,
		Title:      "title " + externalId,
		Date:       date,
		Status:     true,
	}
}

func TestGormStoreCreateAndFindPost(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	tag := &model.Tag{Id: uuid.New().String(), Vocabulary: model.TagVocabulary, Name: "sky"}
	created, err := s.CreateTag(ctx, tag)
	require.NoError(t, err)
	assert.True(t, created)

	post := testPost("100", "2021-09-14T12:00:00")
	post.Media = []model.Media{{Id: uuid.New().String(), Kind: model.MediaKindImage, Bundle: model.MediaBundleImage, FileKey: "instagram/2021-09/a.jpg"}}
	post.Tags = []*model.Tag{tag}
	created, err = s.CreatePost(ctx, post)
	require.NoError(t, err)
	assert.True(t, created)

	found, err := s.FindPostByExternalId(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, post.Id, found.Id)
	require.Len(t, found.Media, 1)
	assert.Equal(t, "instagram/2021-09/a.jpg", found.Media[0].FileKey)

	missing, err := s.FindPostByExternalId(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// same external id is not inserted twice
	created, err = s.CreatePost(ctx, testPost("100", "2021-09-15T12:00:00"))
	require.NoError(t, err)
	assert.False(t, created)
	count, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	posts, err := s.ListPosts(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].Media, 1)
	require.Len(t, posts[0].Tags, 1)
	assert.Equal(t, "sky", posts[0].Tags[0].Name)
}

func TestGormStoreUpdatePostCounters(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	post := testPost("100", "2021-09-14T12:00:00")
	post.Likes = 5
	_, err := s.CreatePost(ctx, post)
	require.NoError(t, err)

	post.Likes = 0
	post.ViewCount = 9
	post.Title = "changed title"
	post.UpdatedAt = time.Now().Add(time.Hour)
	require.NoError(t, s.UpdatePostCounters(ctx, post))

	found, err := s.FindPostByExternalId(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.Likes)
	assert.Equal(t, int64(9), found.ViewCount)
	assert.Equal(t, "title 100", found.Title)
}

func TestGormStoreTagUniqueness(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	created, err := s.CreateTag(ctx, &model.Tag{Id: uuid.New().String(), Vocabulary: model.TagVocabulary, Name: "sky"})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.CreateTag(ctx, &model.Tag{Id: uuid.New().String(), Vocabulary: model.TagVocabulary, Name: "sky"})
	require.NoError(t, err)
	assert.False(t, created)

	tag, err := s.FindTagByName(ctx, model.TagVocabulary, "sky")
	require.NoError(t, err)
	require.NotNil(t, tag)

	tag, err = s.FindTagByName(ctx, "other", "sky")
	require.NoError(t, err)
	assert.Nil(t, tag)
}

func TestGormStoreListAndDeleteAll(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	for _, p := range []*model.Post{
		testPost("1", "2021-01-01T00:00:00"),
		testPost("2", "2021-03-01T00:00:00"),
		testPost("3", "2021-02-01T00:00:00"),
	} {
		_, err := s.CreatePost(ctx, p)
		require.NoError(t, err)
	}

	posts, err := s.ListPosts(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "2", posts[0].ExternalId)
	assert.Equal(t, "3", posts[1].ExternalId)

	posts, err = s.ListPosts(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "1", posts[0].ExternalId)

	deleted, err := s.DeleteAllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	count, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
