package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// KeyPrefix namespaces every key written to a shared Valkey instance
const KeyPrefix = "fossils:"

const valkeyDialTimeout = 5 * time.Second

type valkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects to valkeyURL and pings it. The URL may omit the
// scheme ("localhost:6379") and may select a database ("valkey://host/2").
func NewValkeyCache(valkeyURL string) (Cache, error) {
	opt, err := parseValkeyURL(valkeyURL)
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}
	c := &valkeyCache{client: client}

	ctx, cancel := context.WithTimeout(context.Background(), valkeyDialTimeout)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

// parseValkeyURL turns a Valkey URL into client options
func parseValkeyURL(valkeyURL string) (valkey.ClientOption, error) {
	if !strings.Contains(valkeyURL, "://") {
		valkeyURL = "redis://" + valkeyURL
	}
	// valkey-go understands the redis schemes; valkey:// is an alias
	valkeyURL = strings.Replace(valkeyURL, "valkey://", "redis://", 1)
	valkeyURL = strings.Replace(valkeyURL, "valkeys://", "rediss://", 1)

	if u, err := url.Parse(valkeyURL); err == nil && u.Hostname() == "" {
		return valkey.ClientOption{}, fmt.Errorf("failed to parse Valkey URL: missing host")
	}

	opt, err := valkey.ParseURL(valkeyURL)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("failed to parse Valkey URL: %w", err)
	}
	return opt, nil
}

func (c *valkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(KeyPrefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &CacheError{Operation: "get", Key: key, Err: err}
	}
	return data, nil
}

func (c *valkeyCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	set := c.client.B().Set().Key(KeyPrefix + key).Value(valkey.BinaryString(value))

	var cmd valkey.Completed
	if expiration > 0 {
		cmd = set.Ex(expiration).Build()
	} else {
		cmd = set.Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &CacheError{Operation: "set", Key: key, Err: err}
	}
	return nil
}

func (c *valkeyCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(KeyPrefix+key).Build()).Error(); err != nil {
		return &CacheError{Operation: "delete", Key: key, Err: err}
	}
	return nil
}

func (c *valkeyCache) Close() error {
	c.client.Close()
	return nil
}

func (c *valkeyCache) Health(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey health check failed: %w", err)
	}
	return nil
}

// NewValkeyMultiLevelCache layers an in-process L1 over a Valkey L2
func NewValkeyMultiLevelCache(valkeyURL string, l1MaxItems int) (Cache, error) {
	l2, err := NewValkeyCache(valkeyURL)
	if err != nil {
		return nil, err
	}
	return NewMultiLevelCache(l2, l1MaxItems), nil
}
