// Package consul keeps an emulator namespace in the Consul KV store. Values
// are limited to 512KB by Consul, which bounds the size of emulated files.
package consul

import (
	"context"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/dfs/backend/kv"
)

type Config struct {
	// Address of the Consul agent (default: "127.0.0.1:8500")
	Address    string
	Token      string
	Datacenter string
	// Prefix for every key (default: "dfs/")
	Prefix string
}

type bucket struct {
	kv     *api.KV
	prefix string
}

var _ kv.Bucket = (*bucket)(nil)

func NewStore(cfg Config) (*kv.Store, error) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8500"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "dfs/"
	}
	if !strings.HasSuffix(cfg.Prefix, "/") {
		cfg.Prefix += "/"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = cfg.Address
	if cfg.Token != "" {
		clientConfig.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		clientConfig.Datacenter = cfg.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return kv.NewStore("consul", &bucket{
		kv:     client.KV(),
		prefix: strings.TrimPrefix(cfg.Prefix, "/"),
	}), nil
}

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pair, _, err := b.kv.Get(b.prefix+key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, false, err
	}
	if pair == nil {
		return nil, false, nil
	}
	return pair.Value, true, nil
}

func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.kv.Put(&api.KVPair{
		Key:   b.prefix + key,
		Value: value,
	}, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	_, err := b.kv.Delete(b.prefix+key, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

func (b *bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, _, err := b.kv.Keys(b.prefix+prefix, "", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, b.prefix)
	}
	return keys, nil
}

// Close is a no-op, the Consul client keeps no connection state.
func (b *bucket) Close() error {
	return nil
}
