package repositories

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_BotState_SaveTwiceAndLoad_ShouldReturnLastValueOnce(t *testing.T) {

	assert := assert.New(t)
	repo := NewBotStateRepository(newTestDb(t).DB)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "user_contexts", []byte("first")))
	require.NoError(t, repo.Save(ctx, "user_contexts", []byte("second")))

	data, err := repo.LoadAndRemove(ctx, "user_contexts")
	assert.NoError(err)
	assert.Equal([]byte("second"), data)

	data, err = repo.LoadAndRemove(ctx, "user_contexts")
	assert.NoError(err)
	assert.Nil(data)
}
