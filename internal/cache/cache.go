package cache

import "context"

// Cache 는 값을 JSON 으로 저장한다. 로컬 LRU 와 Redis 가 같은 인터페이스를 쓴다.
type Cache interface {
	// Get dest 에 값을 채운다. 없거나 만료됐으면 false.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}
