package locationstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

// ValkeyStore shares resolved locations between instances through Valkey.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "moonwatch"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) GetLocation(ctx context.Context, key string) (moonrise.ObserverLocation, bool, error) {
	if key == "" {
		return moonrise.ObserverLocation{}, false, nil
	}
	result := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return moonrise.ObserverLocation{}, false, nil
		}
		return moonrise.ObserverLocation{}, false, err
	}
	var loc moonrise.ObserverLocation
	if err := json.Unmarshal([]byte(payload), &loc); err != nil {
		return moonrise.ObserverLocation{}, false, err
	}
	return loc, true, nil
}

func (s *ValkeyStore) SaveLocation(ctx context.Context, key string, loc moonrise.ObserverLocation, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	payload, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:location:%s", s.prefix, key)
}

var _ moonrise.LocationStore = (*ValkeyStore)(nil)
