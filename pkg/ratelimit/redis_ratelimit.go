package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter Redis 기반 고정 윈도우 Rate Limiter.
// 단일 인스턴스 운영에서는 MemoryLimiter로 충분하지만, 카운터를 프로세스
// 밖에 두고 싶을 때 REDIS_URL 설정으로 선택한다.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// checkScript 고정 윈도우 카운터 (원자적 연산)
// 1. 카운터가 limit 이상이면 증가 없이 거부
// 2. 아니면 INCR, 첫 증가 시 윈도우 TTL 설정
// 3. {limited, remaining, reset_in_ms} 반환
var checkScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key))

	if current ~= nil and current >= limit then
		local ttl = redis.call('PTTL', key)
		if ttl < 0 then
			ttl = window_ms
		end
		return {1, 0, ttl}
	end

	current = redis.call('INCR', key)
	if current == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		ttl = window_ms
	end
	return {0, limit - current, ttl}
`)

// NewRedisLimiter Redis 기반 Rate Limiter 생성
func NewRedisLimiter(client *redis.Client, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Check 요청 허용 여부 확인 (고정 윈도우)
func (r *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	redisKey := r.keyPrefix + key

	result, err := checkScript.Run(ctx, r.client, []string{redisKey}, limit, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis script execution failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 3 {
		return Result{}, fmt.Errorf("invalid script result")
	}

	limited, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	resetInMs, _ := values[2].(int64)

	return Result{
		Limited:   limited == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(resetInMs) * time.Millisecond,
	}, nil
}

// Reset 특정 키의 카운터 초기화
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Ping Redis 연결 확인
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close Redis 연결 종료
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
