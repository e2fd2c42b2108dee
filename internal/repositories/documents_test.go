package repositories

import (
	"context"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_Documents_Upsert_ExistingKey_ShouldKeepIdentityAndReplaceText(t *testing.T) {

	assert := assert.New(t)
	repo := NewDocumentsRepository(newTestDb(t).DB)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, 1, 10, models.DocumentCV, "first")
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, 1, 10, models.DocumentCV, "second")
	require.NoError(t, err)
	assert.Equal(created.ID, updated.ID)

	stored, err := repo.Get(ctx, 1, 10, models.DocumentCV)
	require.NoError(t, err)
	assert.Equal(created.ID, stored.ID)
	assert.Equal("second", stored.Text)

	var count int64
	require.NoError(t, repo.db.Model(&models.Document{}).Count(&count).Error)
	assert.Equal(int64(1), count)
}

func Test_Documents_DifferentTypes_ShouldBeSeparateRecords(t *testing.T) {

	assert := assert.New(t)
	repo := NewDocumentsRepository(newTestDb(t).DB)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 1, 10, models.DocumentCV, "cv")
	require.NoError(t, err)

	letter, err := repo.Get(ctx, 1, 10, models.DocumentCoverLetter)
	assert.NoError(err)
	assert.Nil(letter)
}
