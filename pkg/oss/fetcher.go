package oss

import (
	"context"
	"time"

	"osskit/pkg/core/util"

	lru "github.com/hashicorp/golang-lru/v2"
)

// HTTPFetcher 通过HTTP GET获取公钥
type HTTPFetcher struct {
	Timeout time.Duration
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return util.HttpGetBytes(ctx, url, f.Timeout)
}

// CachedFetcher 按URL缓存公钥，只缓存非空结果
type CachedFetcher struct {
	next  Fetcher
	cache *lru.Cache[string, []byte]
}

func NewCachedFetcher(next Fetcher, size int) (*CachedFetcher, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedFetcher{next: next, cache: cache}, nil
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if key, ok := f.cache.Get(url); ok {
		return key, nil
	}
	key, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 {
		f.cache.Add(url, key)
	}
	return key, nil
}
