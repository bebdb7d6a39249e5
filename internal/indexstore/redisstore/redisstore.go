// Package redisstore implements indexstore.Store on top of Redis: posting
// lists as sorted sets, titles and popularity as hashes, group membership
// and the reverse/doc-groups indexes as sets. Key layout mirrors the
// prefix-per-concern convention common to Redis-backed search indexes:
// one namespace per domain, one suffix per concern.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/peterbecom/autocompeter/internal/indexstore"
	"github.com/peterbecom/autocompeter/pkg/types"
)

// Store is a Redis-backed indexstore.Store.
type Store struct {
	rdb *redis.Client
}

// New wraps an already-configured *redis.Client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func titleKey(domain string) string     { return fmt.Sprintf("ac:{%s}:titles", domain) }
func popKey(domain string) string       { return fmt.Sprintf("ac:{%s}:pop", domain) }
func postingKey(domain, p string) string { return fmt.Sprintf("ac:{%s}:post:%s", domain, p) }
func reverseKey(domain, url string) string {
	return fmt.Sprintf("ac:{%s}:rev:%s", domain, url)
}
func docGroupsKey(domain, url string) string {
	return fmt.Sprintf("ac:{%s}:docgroups:%s", domain, url)
}
func groupKey(domain, group string) string {
	return fmt.Sprintf("ac:{%s}:group:%s", domain, group)
}

func (s *Store) TitleGet(ctx context.Context, domain, url string) (string, bool, error) {
	title, err := s.rdb.HGet(ctx, titleKey(domain), url).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, types.WrapError("redisstore.TitleGet", types.ErrStorageIO, err)
	}
	return title, true, nil
}

func (s *Store) ReverseGet(ctx context.Context, domain, url string) ([]string, error) {
	vals, err := s.rdb.SMembers(ctx, reverseKey(domain, url)).Result()
	if err != nil {
		return nil, types.WrapError("redisstore.ReverseGet", types.ErrStorageIO, err)
	}
	return vals, nil
}

func (s *Store) DocGroupsGet(ctx context.Context, domain, url string) ([]string, error) {
	vals, err := s.rdb.SMembers(ctx, docGroupsKey(domain, url)).Result()
	if err != nil {
		return nil, types.WrapError("redisstore.DocGroupsGet", types.ErrStorageIO, err)
	}
	return vals, nil
}

func (s *Store) PostingTopByScore(ctx context.Context, domain, prefix string, limit int) ([]types.Posting, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, postingKey(domain, prefix), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, types.WrapError("redisstore.PostingTopByScore", types.ErrStorageIO, err)
	}
	out := make([]types.Posting, len(zs))
	for i, z := range zs {
		out[i] = types.Posting{URL: z.Member.(string), Score: z.Score}
	}
	return out, nil
}

func (s *Store) GroupMembers(ctx context.Context, domain, group string) (map[string]struct{}, error) {
	vals, err := s.rdb.SMembers(ctx, groupKey(domain, group)).Result()
	if err != nil {
		return nil, types.WrapError("redisstore.GroupMembers", types.ErrStorageIO, err)
	}
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// NewPipeline returns a Pipeline backed by a go-redis transactional
// Pipeliner: every queued command is sent in a single round trip on Exec,
// wrapped in MULTI/EXEC so the batch applies as one unit.
func (s *Store) NewPipeline() indexstore.Pipeline {
	return &pipeline{rdb: s.rdb, pipe: s.rdb.TxPipeline()}
}

type pipeline struct {
	rdb  *redis.Client
	pipe redis.Pipeliner
}

func (p *pipeline) TitlePut(domain, url, title string) {
	p.pipe.HSet(context.Background(), titleKey(domain), url, title)
}

func (p *pipeline) TitleDel(domain, url string) {
	p.pipe.HDel(context.Background(), titleKey(domain), url)
}

func (p *pipeline) PopularityPut(domain, url string, popularity float64) {
	p.pipe.HSet(context.Background(), popKey(domain), url, popularity)
}

func (p *pipeline) PopularityDel(domain, url string) {
	p.pipe.HDel(context.Background(), popKey(domain), url)
}

func (p *pipeline) PostingAdd(domain, prefix, url string, score float64) {
	p.pipe.ZAdd(context.Background(), postingKey(domain, prefix), redis.Z{Score: score, Member: url})
}

func (p *pipeline) PostingRem(domain, prefix, url string) {
	p.pipe.ZRem(context.Background(), postingKey(domain, prefix), url)
}

func (p *pipeline) ReversePut(domain, url string, prefixes []string) {
	ctx := context.Background()
	key := reverseKey(domain, url)
	p.pipe.Del(ctx, key)
	if len(prefixes) == 0 {
		return
	}
	members := make([]interface{}, len(prefixes))
	for i, pr := range prefixes {
		members[i] = pr
	}
	p.pipe.SAdd(ctx, key, members...)
}

func (p *pipeline) ReverseDel(domain, url string) {
	p.pipe.Del(context.Background(), reverseKey(domain, url))
}

func (p *pipeline) DocGroupsPut(domain, url string, groups []string) {
	ctx := context.Background()
	key := docGroupsKey(domain, url)
	p.pipe.Del(ctx, key)
	if len(groups) == 0 {
		return
	}
	members := make([]interface{}, len(groups))
	for i, g := range groups {
		members[i] = g
	}
	p.pipe.SAdd(ctx, key, members...)
}

func (p *pipeline) DocGroupsDel(domain, url string) {
	p.pipe.Del(context.Background(), docGroupsKey(domain, url))
}

func (p *pipeline) GroupAdd(domain, group, url string) {
	p.pipe.SAdd(context.Background(), groupKey(domain, group), url)
}

func (p *pipeline) GroupRem(domain, group, url string) {
	p.pipe.SRem(context.Background(), groupKey(domain, group), url)
}

func (p *pipeline) Exec(ctx context.Context) error {
	_, err := p.pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return types.WrapError("redisstore.Exec", types.ErrStorageIO, err)
	}
	return nil
}
