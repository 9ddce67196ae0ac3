package consul

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/marmos91/dittometa/pkg/kv"
)

// ConsulStore implements kv.Store on the HashiCorp Consul KV store.
//
// Each record is one Consul key under Prefix. Consul KV has a 512KB limit
// per value, far above what a single item's annotations or an alias list
// ever reach.
type ConsulStore struct {
	client *api.Client
	kv     *api.KV
	prefix string
}

// ConsulStoreConfig contains configuration for the Consul backend.
type ConsulStoreConfig struct {
	// Address of the Consul agent (default: "127.0.0.1:8500")
	Address string `mapstructure:"address"`

	// Token for Consul ACL authentication (optional)
	Token string `mapstructure:"token"`

	// Datacenter to use (optional)
	Datacenter string `mapstructure:"datacenter"`

	// Prefix for all keys in Consul KV (default: "dittometa/")
	Prefix string `mapstructure:"prefix"`
}

// NewConsulStore creates a Consul-backed store.
func NewConsulStore(config ConsulStoreConfig) (*ConsulStore, error) {
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	if config.Prefix == "" {
		config.Prefix = "dittometa/"
	}
	if !strings.HasSuffix(config.Prefix, "/") {
		config.Prefix += "/"
	}
	config.Prefix = strings.TrimPrefix(config.Prefix, "/")

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulStore{
		client: client,
		kv:     client.KV(),
		prefix: config.Prefix,
	}, nil
}

var _ kv.Store = (*ConsulStore)(nil)

func (s *ConsulStore) buildKey(key string) string {
	return s.prefix + key
}

// Get returns the value stored under key.
func (s *ConsulStore) Get(ctx context.Context, key string) ([]byte, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)

	pair, _, err := s.kv.Get(s.buildKey(key), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get %q from consul: %w", key, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("key %q: %w", key, kv.ErrKeyNotFound)
	}
	if pair.Value == nil {
		return []byte{}, nil
	}
	return pair.Value, nil
}

// Set writes value under key.
func (s *ConsulStore) Set(ctx context.Context, key string, value []byte) error {
	opts := (&api.WriteOptions{}).WithContext(ctx)

	stored := make([]byte, len(value))
	copy(stored, value)

	pair := &api.KVPair{
		Key:   s.buildKey(key),
		Value: stored,
	}
	if _, err := s.kv.Put(pair, opts); err != nil {
		return fmt.Errorf("failed to put %q to consul: %w", key, err)
	}
	return nil
}

// Delete removes key. Consul treats deleting a missing key as success.
func (s *ConsulStore) Delete(ctx context.Context, key string) error {
	opts := (&api.WriteOptions{}).WithContext(ctx)

	if _, err := s.kv.Delete(s.buildKey(key), opts); err != nil {
		return fmt.Errorf("failed to delete %q from consul: %w", key, err)
	}
	return nil
}

// List returns record keys starting with prefix, in ascending order.
func (s *ConsulStore) List(ctx context.Context, prefix string) ([]string, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)

	consulKeys, _, err := s.kv.Keys(s.buildKey(prefix), "", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q from consul: %w", prefix, err)
	}

	keys := make([]string, 0, len(consulKeys))
	for _, key := range consulKeys {
		keys = append(keys, strings.TrimPrefix(key, s.prefix))
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op; the Consul client is stateless.
func (s *ConsulStore) Close() error {
	return nil
}
