package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps per-player seen-sets in Redis sets. SADD gives the
// atomic per (token, quiz) update the dispatcher needs when several
// categories are fetched close together; sets also make duplicate marks a
// no-op by construction.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration // 0 means no expiry
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) SeenQuestions(ctx context.Context, playerToken, quizID, categoryID string) (map[string]struct{}, error) {
	return s.members(ctx, s.questionsKey(playerToken, quizID, categoryID))
}

func (s *ProgressStore) MarkQuestionsSeen(ctx context.Context, playerToken, quizID, categoryID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(questionIDs))
	for i, id := range questionIDs {
		members[i] = id
	}
	return s.add(ctx, s.questionsKey(playerToken, quizID, categoryID), members...)
}

func (s *ProgressStore) SeenSignatures(ctx context.Context, playerToken, quizID string) (map[string]struct{}, error) {
	return s.members(ctx, s.mathKey(playerToken, quizID))
}

func (s *ProgressStore) MarkSignatureSeen(ctx context.Context, playerToken, quizID, signature string) error {
	return s.add(ctx, s.mathKey(playerToken, quizID), signature)
}

func (s *ProgressStore) members(ctx context.Context, key string) (map[string]struct{}, error) {
	values, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set, nil
}

func (s *ProgressStore) add(ctx context.Context, key string, members ...interface{}) error {
	if err := s.client.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *ProgressStore) questionsKey(playerToken, quizID, categoryID string) string {
	return "progress:" + quizID + ":" + playerToken + ":category:" + categoryID
}

func (s *ProgressStore) mathKey(playerToken, quizID string) string {
	return "progress:" + quizID + ":" + playerToken + ":math"
}
