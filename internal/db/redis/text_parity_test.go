package redis

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lognlook/lognlook/internal/db"
	"github.com/lognlook/lognlook/internal/db/memory"
)

// Both drivers must treat a multi-word text query as "any term matches".
// The memory driver answers through bleve; the Redis query string is
// evaluated here as a union over the same documents.
func TestSearchText_MultiTermMatchesMemoryDriver(t *testing.T) {
	ctx := context.Background()
	docs := map[string]string{
		"logs:app:1": "database query timed out",
		"logs:app:2": "disk is full on node",
		"logs:app:3": "worker crash loop detected",
	}
	const userQuery = "why did the database crash?"

	mem := memory.NewStore()
	require.NoError(t, mem.CreateIndex(ctx, db.NewIndex("logs:app:idx").
		Prefix("logs:app:").
		Text("message").
		MustBuild()))
	for k, msg := range docs {
		require.NoError(t, mem.JSONSet(ctx, k, "$", []byte(`{"message":"`+msg+`"}`)))
	}
	memRes, err := mem.SearchText(ctx, &db.TextQuery{IndexName: "logs:app:idx", Field: "message", Query: userQuery, TopK: 10})
	require.NoError(t, err)
	memKeys := make([]string, 0, len(memRes.Entries))
	for _, e := range memRes.Entries {
		memKeys = append(memKeys, e.Key)
	}
	sort.Strings(memKeys)

	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	var sent string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			sent = cmd[2]
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	_, err = NewStoreForTest(c).SearchText(ctx, &db.TextQuery{IndexName: "logs:app:idx", Field: "message", Query: userQuery, TopK: 10})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(sent, "@message:(") && strings.HasSuffix(sent, ")"), "query = %q", sent)
	terms := strings.Split(strings.TrimSuffix(strings.TrimPrefix(sent, "@message:("), ")"), "|")

	var redisKeys []string
	for k, msg := range docs {
		words := strings.Fields(msg)
		for _, term := range terms {
			if containsWord(words, term) {
				redisKeys = append(redisKeys, k)
				break
			}
		}
	}
	sort.Strings(redisKeys)

	assert.Equal(t, []string{"logs:app:1", "logs:app:3"}, memKeys)
	assert.Equal(t, memKeys, redisKeys)
}

func containsWord(words []string, term string) bool {
	for _, w := range words {
		if strings.EqualFold(w, term) {
			return true
		}
	}
	return false
}
