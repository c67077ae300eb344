package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// StagingStore holds attached files until submit, one hash per user with a
// field per document kind.
// Key format: onboarding:staged:<uid>
type StagingStore struct {
	client *redis.Client
}

func NewStagingStore(client *redis.Client) *StagingStore {
	return &StagingStore{client: client}
}

type stagedRecord struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func (s *StagingStore) Put(ctx context.Context, uid string, f *domain.StagedFile) error {
	raw, err := encodeStaged(f)
	if err != nil {
		return err
	}
	key := stagedKey(uid)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, string(f.Kind), raw)
		pipe.Expire(ctx, key, FlowTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("stage file: %w", err)
	}
	return nil
}

func (s *StagingStore) Get(ctx context.Context, uid string, kind domain.DocumentKind) (*domain.StagedFile, error) {
	raw, err := s.client.HGet(ctx, stagedKey(uid), string(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staged file: %w", err)
	}
	return decodeStaged(kind, raw)
}

func (s *StagingStore) Clear(ctx context.Context, uid string) error {
	return s.client.Del(ctx, stagedKey(uid)).Err()
}

func encodeStaged(f *domain.StagedFile) ([]byte, error) {
	raw, err := json.Marshal(stagedRecord{Filename: f.Filename, ContentType: f.ContentType, Data: f.Data})
	if err != nil {
		return nil, fmt.Errorf("encode staged file: %w", err)
	}
	return raw, nil
}

func decodeStaged(kind domain.DocumentKind, raw []byte) (*domain.StagedFile, error) {
	var rec stagedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode staged file: %w", err)
	}
	return &domain.StagedFile{Kind: kind, Filename: rec.Filename, ContentType: rec.ContentType, Data: rec.Data}, nil
}

func stagedKey(uid string) string {
	return "onboarding:staged:" + uid
}
