package corpus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis index configuration
type RedisConfig struct {
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int    `json:"database_num" yaml:"database_num"`
	BatchSize   int    `json:"batch_size" yaml:"batch_size"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "textclass:index",
		DatabaseNum: 0,
		BatchSize:   100,
	}
}

// RedisIndex stores a corpus index in Redis hashes:
//
//	<prefix>:<name>:meta            documents, created
//	<prefix>:<name>:terms           set of distinct terms
//	<prefix>:<name>:doc:<n>         external_id, label, length
//	<prefix>:<name>:doc:<n>:terms   term -> frequency
type RedisIndex struct {
	client *redis.Client
	config *RedisConfig
	name   string
}

// OpenRedisIndex opens an existing index named name
func OpenRedisIndex(ctx context.Context, config *RedisConfig, name string) (*RedisIndex, error) {
	ri, err := newRedisIndex(ctx, config, name)
	if err != nil {
		return nil, err
	}
	n, err := ri.client.Exists(ctx, ri.metaKey()).Result()
	if err != nil {
		ri.Close()
		return nil, fmt.Errorf("failed to check index: %w", err)
	}
	if n == 0 {
		ri.Close()
		return nil, fmt.Errorf("%w: redis index %s", ErrIndexNotFound, name)
	}
	return ri, nil
}

// CreateRedisIndex creates an empty index named name, dropping any previous one
func CreateRedisIndex(ctx context.Context, config *RedisConfig, name string) (*RedisIndex, error) {
	ri, err := newRedisIndex(ctx, config, name)
	if err != nil {
		return nil, err
	}
	if err := ri.Reset(ctx); err != nil {
		ri.Close()
		return nil, fmt.Errorf("failed to reset index: %w", err)
	}
	if err := ri.client.HSet(ctx, ri.metaKey(), "documents", 0, "created", time.Now().Unix()).Err(); err != nil {
		ri.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return ri, nil
}

func newRedisIndex(ctx context.Context, config *RedisConfig, name string) (*RedisIndex, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis connection failed: %w", err)
	}

	return &RedisIndex{
		client: client,
		config: config,
		name:   name,
	}, nil
}

func (ri *RedisIndex) NumDocuments(ctx context.Context) (int, error) {
	n, err := ri.client.HGet(ctx, ri.metaKey(), "documents").Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (ri *RedisIndex) NumDistinctTerms(ctx context.Context) (int, error) {
	n, err := ri.client.SCard(ctx, ri.termsKey()).Result()
	return int(n), err
}

func (ri *RedisIndex) Document(ctx context.Context, docNb int) (*Document, error) {
	pipe := ri.client.Pipeline()
	docCmd := pipe.HGetAll(ctx, ri.docKey(docNb))
	termsCmd := pipe.HGetAll(ctx, ri.docTermsKey(docNb))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read document %d: %w", docNb, err)
	}

	fields := docCmd.Val()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, docNb)
	}
	doc := &Document{Number: docNb}
	var err error
	if doc.ExternalID, err = strconv.Atoi(fields["external_id"]); err != nil {
		return nil, fmt.Errorf("invalid external id for document %d: %w", docNb, err)
	}
	if doc.Label, err = strconv.Atoi(fields["label"]); err != nil {
		return nil, fmt.Errorf("invalid label for document %d: %w", docNb, err)
	}
	if doc.Length, err = strconv.Atoi(fields["length"]); err != nil {
		return nil, fmt.Errorf("invalid length for document %d: %w", docNb, err)
	}

	doc.Terms = make(map[string]int, len(termsCmd.Val()))
	for term, value := range termsCmd.Val() {
		freq, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency for %q in document %d: %w", term, docNb, err)
		}
		doc.Terms[term] = freq
	}
	return doc, nil
}

func (ri *RedisIndex) AddDocument(ctx context.Context, externalID, label int, terms map[string]int) (int, error) {
	count, err := ri.client.HIncrBy(ctx, ri.metaKey(), "documents", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate document number: %w", err)
	}
	docNb := int(count - 1)

	vector := make(map[string]interface{}, len(terms))
	distinct := make([]interface{}, 0, len(terms))
	length := 0
	for term, freq := range terms {
		if freq <= 0 {
			continue
		}
		vector[term] = freq
		distinct = append(distinct, term)
		length += freq
	}

	pipe := ri.client.Pipeline()
	pipe.HSet(ctx, ri.docKey(docNb), "external_id", externalID, "label", label, "length", length)
	if len(vector) > 0 {
		pipe.HSet(ctx, ri.docTermsKey(docNb), vector)
		pipe.SAdd(ctx, ri.termsKey(), distinct...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to store document %d: %w", docNb, err)
	}
	return docNb, nil
}

// Reset deletes every key of the index
func (ri *RedisIndex) Reset(ctx context.Context) error {
	batch := ri.config.BatchSize
	if batch <= 0 {
		batch = 100
	}

	iter := ri.client.Scan(ctx, 0, ri.prefix()+":*", int64(batch)).Iterator()
	pipe := ri.client.Pipeline()
	count := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		if count >= batch {
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			pipe = ri.client.Pipeline()
			count = 0
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if count > 0 {
		_, err := pipe.Exec(ctx)
		return err
	}
	return nil
}

// Close closes the Redis connection
func (ri *RedisIndex) Close() error {
	return ri.client.Close()
}

func (ri *RedisIndex) prefix() string {
	return fmt.Sprintf("%s:%s", ri.config.KeyPrefix, ri.name)
}

func (ri *RedisIndex) metaKey() string {
	return ri.prefix() + ":meta"
}

func (ri *RedisIndex) termsKey() string {
	return ri.prefix() + ":terms"
}

func (ri *RedisIndex) docKey(docNb int) string {
	return fmt.Sprintf("%s:doc:%d", ri.prefix(), docNb)
}

func (ri *RedisIndex) docTermsKey(docNb int) string {
	return fmt.Sprintf("%s:doc:%d:terms", ri.prefix(), docNb)
}

var _ Index = (*RedisIndex)(nil)
