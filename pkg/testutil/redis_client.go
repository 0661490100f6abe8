package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/peerquest-lab/backend/pkg/xredis"
)

// MockRedisClient is an in-memory xredis.Client for tests. TTLs are ignored;
// a test that needs expiry can delete keys explicitly.
type MockRedisClient struct {
	mutex sync.Mutex
	data  map[string]string
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{data: make(map[string]string)}
}

func (m *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[key] = string(b)
	return nil
}

func (m *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	m.mutex.Lock()
	value, ok := m.data[key]
	m.mutex.Unlock()

	if !ok {
		return xredis.ErrNotFound
	}

	return json.Unmarshal([]byte(value), v)
}
