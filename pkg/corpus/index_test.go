package corpus

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedisConfig = &RedisConfig{
	RedisURL:    "redis://localhost:6379",
	KeyPrefix:   "textclass:test:index",
	DatabaseNum: 1, // Use separate database for testing
	BatchSize:   10,
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// exerciseIndex checks the behavior every Index implementation shares
func exerciseIndex(t *testing.T, index Index) {
	ctx := context.Background()

	n, err := index.NumDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	docNb, err := index.AddDocument(ctx, 101, 0, map[string]int{"appl": 2, "pie": 1})
	require.NoError(t, err)
	assert.Equal(t, 0, docNb)
	docNb, err = index.AddDocument(ctx, 205, 1, map[string]int{"graphic": 3, "pie": 1, "zero": 0})
	require.NoError(t, err)
	assert.Equal(t, 1, docNb)
	docNb, err = index.AddDocument(ctx, 300, 1, map[string]int{})
	require.NoError(t, err)
	assert.Equal(t, 2, docNb)

	n, err = index.NumDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	terms, err := index.NumDistinctTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, terms)

	doc, err := index.Document(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Number)
	assert.Equal(t, 205, doc.ExternalID)
	assert.Equal(t, 1, doc.Label)
	assert.Equal(t, 4, doc.Length)
	assert.Equal(t, map[string]int{"graphic": 3, "pie": 1}, doc.Terms)

	empty, err := index.Document(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Length)
	assert.Empty(t, empty.Terms)

	_, err = index.Document(ctx, 3)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
}

func TestMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	defer index.Close()
	exerciseIndex(t, index)

	_, err := index.Document(context.Background(), -1)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
}

func TestMemoryIndexAddText(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	index := NewMemoryIndex()
	docNb, err := index.AddText(context.Background(), analyzer, 7, 2, "Running runs, the runner ran")
	require.NoError(t, err)

	doc, err := index.Document(context.Background(), docNb)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Terms["run"])
	assert.Equal(t, 2, doc.Label)
	assert.Equal(t, 7, doc.ExternalID)
}

func TestSQLiteIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "indexes", "newsgroups.db")

	_, err := OpenSQLiteIndex(ctx, path)
	assert.True(t, errors.Is(err, ErrIndexNotFound))

	index, err := CreateSQLiteIndex(ctx, path)
	require.NoError(t, err)
	exerciseIndex(t, index)
	require.NoError(t, index.Close())

	// Reopened indexes keep their documents and continue numbering
	index, err = OpenSQLiteIndex(ctx, path)
	require.NoError(t, err)
	n, err := index.NumDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	docNb, err := index.AddDocument(ctx, 400, 0, map[string]int{"pie": 5, "crust": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, docNb)
	terms, err := index.NumDistinctTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, terms)
	require.NoError(t, index.Close())

	// Creating again drops the previous content
	index, err = CreateSQLiteIndex(ctx, path)
	require.NoError(t, err)
	defer index.Close()
	n, err = index.NumDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisIndex(t *testing.T) {
	// Skip if Redis not available
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}
	ctx := context.Background()

	_, err := OpenRedisIndex(ctx, testRedisConfig, "missing")
	assert.True(t, errors.Is(err, ErrIndexNotFound))

	index, err := CreateRedisIndex(ctx, testRedisConfig, "newsgroups")
	require.NoError(t, err)
	defer func() {
		index.Reset(ctx)
		index.Close()
	}()
	exerciseIndex(t, index)

	reopened, err := OpenRedisIndex(ctx, testRedisConfig, "newsgroups")
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.NumDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRedisIndexBadURL(t *testing.T) {
	_, err := OpenRedisIndex(context.Background(), &RedisConfig{RedisURL: "not a url"}, "x")
	assert.Error(t, err)
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use test database
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	return err == nil
}
