package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/logger"
)

// DefaultPrefix namespaces the keys the companion app writes.
const DefaultPrefix = "authenticator:shared"

// RedisSource reads shared items that the companion app writes to Redis:
//
//	<prefix>:items         JSON array of Item
//	<prefix>:sync_enabled  "1" when sync is on
//	<prefix>:changed       pub/sub channel notified after every write
//
// Each notification reloads the items and republishes them.
type RedisSource struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger

	items  *broadcast.State[[]Item]
	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// RedisOption configures a RedisSource.
type RedisOption func(*RedisSource)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSource) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for reload failures.
func WithLogger(log *slog.Logger) RedisOption {
	return func(s *RedisSource) {
		if log != nil {
			s.log = log
		}
	}
}

// NewRedisSource loads the current items, subscribes to change notifications
// and starts reloading in the background until Close.
func NewRedisSource(ctx context.Context, client redis.UniversalClient, opts ...RedisOption) (*RedisSource, error) {
	if client == nil {
		panic("shared: redis client is required")
	}
	s := &RedisSource{
		client: client,
		prefix: DefaultPrefix,
		log:    logger.Discard(),
		items:  broadcast.NewState[[]Item](),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pubsub = client.Subscribe(ctx, s.channelKey())
	// Wait for the subscription so no write between load and subscribe is missed.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		_ = s.pubsub.Close()
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	if err := s.reload(ctx); err != nil {
		_ = s.pubsub.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.wg.Add(1)
	go s.listen(runCtx)

	return s, nil
}

func (s *RedisSource) IsSyncEnabled(ctx context.Context) (bool, error) {
	v, err := s.client.Get(ctx, s.syncKey()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(ErrSourceUnavailable, err)
	}
	return v == "1" || v == "true", nil
}

func (s *RedisSource) Items(ctx context.Context) (<-chan []Item, error) {
	return s.items.Values(ctx), nil
}

// Close stops listening for changes and ends every item stream.
// The Redis client stays owned by the caller.
func (s *RedisSource) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		s.wg.Wait()
		err = errors.Join(err, s.items.Close())
	})
	return err
}

func (s *RedisSource) listen(ctx context.Context) {
	defer s.wg.Done()

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := s.reload(ctx); err != nil && ctx.Err() == nil {
				s.log.ErrorContext(ctx, "failed to reload shared items",
					logger.Component("shared"), logger.Error(err))
			}
		}
	}
}

func (s *RedisSource) reload(ctx context.Context) error {
	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := s.items.Set(items); err != nil && !errors.Is(err, broadcast.ErrClosed) {
		return err
	}
	return nil
}

func (s *RedisSource) load(ctx context.Context) ([]Item, error) {
	raw, err := s.client.Get(ctx, s.itemsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	items := []Item{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return items, nil
}

func (s *RedisSource) itemsKey() string   { return s.prefix + ":items" }
func (s *RedisSource) syncKey() string    { return s.prefix + ":sync_enabled" }
func (s *RedisSource) channelKey() string { return s.prefix + ":changed" }

// Publish writes items and the sync flag the way the companion app does and
// notifies subscribers. It exists for tooling and tests.
func Publish(ctx context.Context, client redis.UniversalClient, prefix string, items []Item, syncEnabled bool) error {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	flag := "0"
	if syncEnabled {
		flag = "1"
	}

	_, err = client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, prefix+":items", payload, 0)
		p.Set(ctx, prefix+":sync_enabled", flag, 0)
		p.Publish(ctx, prefix+":changed", "1")
		return nil
	})
	if err != nil {
		return errors.Join(ErrSourceUnavailable, err)
	}
	return nil
}
