// Package indexer turns Document writes and deletes into Index Store
// mutations: populating the title/popularity maps, per-prefix posting
// lists, group memberships, and the reverse lookup that makes deletion
// exact.
package indexer

import (
	"context"
	"math"
	"strings"

	"github.com/peterbecom/autocompeter/internal/indexstore"
	"github.com/peterbecom/autocompeter/internal/tokenize"
	"github.com/peterbecom/autocompeter/pkg/types"
)

// Indexer applies PUT/DELETE to an indexstore.Store, serializing mutations
// to the same (domain, url) through a striped lock; concurrent writes to
// different URLs contend only when they hash to the same stripe.
type Indexer struct {
	store indexstore.Store
	locks *keyLock
}

// New returns an Indexer writing through store.
func New(store indexstore.Store) *Indexer {
	return &Indexer{store: store, locks: newKeyLock()}
}

// Put writes d into domain, replacing any prior document at the same URL.
// Preconditions (trimmed non-empty URL, finite non-negative popularity) are
// validated by the caller (internal/api); Put assumes d is already clean.
func (ix *Indexer) Put(ctx context.Context, domain string, d types.Document) error {
	const op = "indexer.Put"

	unlock := ix.locks.Lock(domain, d.URL)
	defer unlock()

	folded, raw := tokenize.Both(d.Title)
	newPrefixes := tokenize.Prefixes(folded)
	for p := range tokenize.Prefixes(raw) {
		newPrefixes[p] = struct{}{}
	}

	oldPrefixes, err := ix.store.ReverseGet(ctx, domain, d.URL)
	if err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}
	oldGroups, err := ix.store.DocGroupsGet(ctx, domain, d.URL)
	if err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}

	oldSet := make(map[string]struct{}, len(oldPrefixes))
	for _, p := range oldPrefixes {
		oldSet[p] = struct{}{}
	}

	popularity := d.Popularity
	if math.IsNaN(popularity) || math.IsInf(popularity, 0) {
		popularity = 0
	}

	pipe := ix.store.NewPipeline()

	for p := range oldSet {
		if _, stillUsed := newPrefixes[p]; !stillUsed {
			pipe.PostingRem(domain, p, d.URL)
		}
	}
	for p := range newPrefixes {
		pipe.PostingAdd(domain, p, d.URL, popularity)
	}

	newPrefixList := make([]string, 0, len(newPrefixes))
	for p := range newPrefixes {
		newPrefixList = append(newPrefixList, p)
	}
	pipe.ReversePut(domain, d.URL, newPrefixList)

	pipe.TitlePut(domain, d.URL, d.Title)
	pipe.PopularityPut(domain, d.URL, popularity)

	newGroups := normalizeGroups(d.Groups)
	newGroupSet := make(map[string]struct{}, len(newGroups))
	for _, g := range newGroups {
		newGroupSet[g] = struct{}{}
	}
	for _, g := range oldGroups {
		if _, stillMember := newGroupSet[g]; !stillMember {
			pipe.GroupRem(domain, g, d.URL)
		}
	}
	for _, g := range newGroups {
		pipe.GroupAdd(domain, g, d.URL)
	}
	pipe.DocGroupsPut(domain, d.URL, newGroups)

	if err := pipe.Exec(ctx); err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}
	return nil
}

// Delete removes url from domain entirely. A missing document is a no-op.
func (ix *Indexer) Delete(ctx context.Context, domain, url string) error {
	const op = "indexer.Delete"

	unlock := ix.locks.Lock(domain, url)
	defer unlock()

	prefixes, err := ix.store.ReverseGet(ctx, domain, url)
	if err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}
	groups, err := ix.store.DocGroupsGet(ctx, domain, url)
	if err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}
	if len(prefixes) == 0 && len(groups) == 0 {
		if _, ok, err := ix.store.TitleGet(ctx, domain, url); err != nil {
			return types.WrapError(op, types.ErrStorageIO, err)
		} else if !ok {
			return nil
		}
	}

	pipe := ix.store.NewPipeline()
	for _, p := range prefixes {
		pipe.PostingRem(domain, p, url)
	}
	for _, g := range groups {
		pipe.GroupRem(domain, g, url)
	}
	pipe.ReverseDel(domain, url)
	pipe.DocGroupsDel(domain, url)
	pipe.TitleDel(domain, url)
	pipe.PopularityDel(domain, url)

	if err := pipe.Exec(ctx); err != nil {
		return types.WrapError(op, types.ErrStorageIO, err)
	}
	return nil
}

// normalizeGroups trims and drops empty entries from a comma-split groups
// list; an empty result means "public only".
func normalizeGroups(groups []string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
	}
	return out
}
