// Package indexstore defines the backend-agnostic contract the indexer and
// query engine use to read and write the per-domain inverted index. Key
// layout is a private concern of each implementation; every key it
// generates must be namespaced by domain so tenants never see one
// another's data.
package indexstore

import (
	"context"

	"github.com/peterbecom/autocompeter/pkg/types"
)

// Store is the read side of the index: lookups that the indexer and query
// engine need before (or instead of) mutating state.
type Store interface {
	// TitleGet returns the title last written for url, or ok=false if the
	// document doesn't exist.
	TitleGet(ctx context.Context, domain, url string) (title string, ok bool, err error)

	// ReverseGet returns the set of prefixes url is currently registered
	// under (the reverse index), used to compute the old\new diff on PUT
	// and to drive cleanup on DELETE.
	ReverseGet(ctx context.Context, domain, url string) ([]string, error)

	// DocGroupsGet returns the private groups url currently belongs to.
	DocGroupsGet(ctx context.Context, domain, url string) ([]string, error)

	// PostingTopByScore returns up to limit (url, score) pairs for prefix,
	// ordered by score descending.
	PostingTopByScore(ctx context.Context, domain, prefix string, limit int) ([]types.Posting, error)

	// GroupMembers returns the URLs currently in group g.
	GroupMembers(ctx context.Context, domain, group string) (map[string]struct{}, error)

	// NewPipeline begins a batch of mutations that commit atomically (or
	// not at all) when Exec is called.
	NewPipeline() Pipeline

	// Close releases backend resources.
	Close() error
}

// Pipeline batches the mutations of a single PUT or DELETE so they commit
// as one round trip. Queued calls are applied in the order they were
// queued; Exec aborts the whole batch on backend failure.
type Pipeline interface {
	TitlePut(domain, url, title string)
	TitleDel(domain, url string)

	PopularityPut(domain, url string, popularity float64)
	PopularityDel(domain, url string)

	PostingAdd(domain, prefix, url string, score float64)
	PostingRem(domain, prefix, url string)

	ReversePut(domain, url string, prefixes []string)
	ReverseDel(domain, url string)

	DocGroupsPut(domain, url string, groups []string)
	DocGroupsDel(domain, url string)

	GroupAdd(domain, group, url string)
	GroupRem(domain, group, url string)

	// Exec commits every queued operation atomically against ctx. A
	// cancelled ctx aborts before commit; nothing queued is applied.
	Exec(ctx context.Context) error
}
