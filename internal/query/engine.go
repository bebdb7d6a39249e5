// Package query implements GET: parsing a query into prefix terms,
// intersecting posting lists across terms and groups, ranking by
// popularity, and resolving URLs to titles.
package query

import (
	"context"

	"github.com/peterbecom/autocompeter/internal/indexstore"
	"github.com/peterbecom/autocompeter/internal/tokenize"
	"github.com/peterbecom/autocompeter/pkg/types"
)

// Engine answers GET queries against an indexstore.Store.
type Engine struct {
	store             indexstore.Store
	postingFetchLimit int
}

// New returns an Engine. postingFetchLimit is LARGE from the query
// algorithm: how many entries of a single term's posting list are fetched
// before intersecting across terms.
func New(store indexstore.Store, postingFetchLimit int) *Engine {
	if postingFetchLimit <= 0 {
		postingFetchLimit = 1000
	}
	return &Engine{store: store, postingFetchLimit: postingFetchLimit}
}

// Get runs query q against domain, filtered by the comma-parsed groups G
// (public is always included), trimmed to at most n results.
func (e *Engine) Get(ctx context.Context, domain, q string, n int, groups []string) (types.QueryResponse, error) {
	const op = "query.Get"

	retrievalTerms, echoTerms := tokenize.QueryTerms(q)
	if len(retrievalTerms) == 0 {
		return types.QueryResponse{Terms: []string{}, Results: [][2]string{}}, nil
	}

	wantedGroups := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g != types.PublicGroup {
			wantedGroups[g] = struct{}{}
		}
	}

	ranked, err := e.rankedIntersection(ctx, domain, retrievalTerms)
	if err != nil {
		return types.QueryResponse{}, types.WrapError(op, types.ErrStorageIO, err)
	}

	results := make([][2]string, 0, n)
	for _, url := range ranked {
		if len(results) >= n {
			break
		}
		ok, err := e.allowed(ctx, domain, url, wantedGroups)
		if err != nil {
			return types.QueryResponse{}, types.WrapError(op, types.ErrStorageIO, err)
		}
		if !ok {
			continue
		}
		title, ok, err := e.store.TitleGet(ctx, domain, url)
		if err != nil {
			return types.QueryResponse{}, types.WrapError(op, types.ErrStorageIO, err)
		}
		if !ok {
			continue
		}
		results = append(results, [2]string{url, title})
	}

	return types.QueryResponse{Terms: echoTerms, Results: results}, nil
}

// rankedIntersection fetches each term's posting list and keeps only the
// URLs present in every one, preserving the first term's order.
func (e *Engine) rankedIntersection(ctx context.Context, domain string, terms []string) ([]string, error) {
	first, err := e.store.PostingTopByScore(ctx, domain, terms[0], e.postingFetchLimit)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(first))
	for _, p := range first {
		order = append(order, p.URL)
	}

	for _, t := range terms[1:] {
		postings, err := e.store.PostingTopByScore(ctx, domain, t, e.postingFetchLimit)
		if err != nil {
			return nil, err
		}
		present := make(map[string]struct{}, len(postings))
		for _, p := range postings {
			present[p.URL] = struct{}{}
		}
		filtered := order[:0:0]
		for _, url := range order {
			if _, ok := present[url]; ok {
				filtered = append(filtered, url)
			}
		}
		order = filtered
	}

	return order, nil
}

// allowed reports whether url is visible to a query requesting wantedGroups:
// true if url declares no private groups (it's public), or if it belongs to
// one of the requested groups.
func (e *Engine) allowed(ctx context.Context, domain, url string, wantedGroups map[string]struct{}) (bool, error) {
	docGroups, err := e.store.DocGroupsGet(ctx, domain, url)
	if err != nil {
		return false, err
	}
	if len(docGroups) == 0 {
		return true, nil
	}
	for _, g := range docGroups {
		if _, ok := wantedGroups[g]; ok {
			return true, nil
		}
	}
	return false, nil
}
