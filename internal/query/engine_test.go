package query

import (
	"context"
	"testing"

	"github.com/peterbecom/autocompeter/internal/indexer"
	"github.com/peterbecom/autocompeter/internal/indexstore/memstore"
	"github.com/peterbecom/autocompeter/pkg/types"
)

func setup(t *testing.T) (*memstore.Store, *indexer.Indexer, *Engine) {
	t.Helper()
	store := memstore.New()
	ix := indexer.New(store)
	qe := New(store, 1000)
	return store, ix, qe
}

func TestGetBasicInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	d := types.Document{URL: "/plog/something", Title: "This is a blog about something", Popularity: 12}
	if err := ix.Put(ctx, "peterbecom", d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp, err := qe.Get(ctx, "peterbecom", "blo", 10, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Terms) != 1 || resp.Terms[0] != "blo" {
		t.Fatalf("terms = %v, want [blo]", resp.Terms)
	}
	if len(resp.Results) != 1 || resp.Results[0][0] != d.URL || resp.Results[0][1] != d.Title {
		t.Fatalf("results = %v", resp.Results)
	}
}

func TestGetUnicodeEchoesBothForms(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	if err := ix.Put(ctx, "peterbecom", types.Document{URL: "/u", Title: "Blögged about something else"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp, err := qe.Get(ctx, "peterbecom", "blog", 10, nil)
	if err != nil || len(resp.Terms) != 1 || resp.Terms[0] != "blog" || len(resp.Results) != 1 {
		t.Fatalf("Get(blog) = %+v, %v", resp, err)
	}

	resp, err = qe.Get(ctx, "peterbecom", "blög", 10, nil)
	if err != nil {
		t.Fatalf("Get(blög): %v", err)
	}
	if len(resp.Terms) != 2 || resp.Terms[0] != "blög" || resp.Terms[1] != "blog" {
		t.Fatalf("terms = %v, want [blög blog]", resp.Terms)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %v, want 1", resp.Results)
	}
}

func TestGetPopularityReordering(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	if err := ix.Put(ctx, "d", types.Document{URL: "/minor", Title: "minor page", Popularity: 1.1}); err != nil {
		t.Fatalf("Put minor: %v", err)
	}
	if err := ix.Put(ctx, "d", types.Document{URL: "/major", Title: "major page", Popularity: 2.7}); err != nil {
		t.Fatalf("Put major: %v", err)
	}

	resp, err := qe.Get(ctx, "d", "pag", 10, nil)
	if err != nil || len(resp.Results) != 2 {
		t.Fatalf("Get: %v, %v", resp, err)
	}
	if resp.Results[0][0] != "/major" || resp.Results[1][0] != "/minor" {
		t.Fatalf("order = %v, want [major minor]", resp.Results)
	}

	if err := ix.Put(ctx, "d", types.Document{URL: "/minor", Title: "minor page", Popularity: 3.0}); err != nil {
		t.Fatalf("Put minor again: %v", err)
	}
	resp, err = qe.Get(ctx, "d", "pag", 10, nil)
	if err != nil || len(resp.Results) != 2 {
		t.Fatalf("Get: %v, %v", resp, err)
	}
	if resp.Results[0][0] != "/minor" || resp.Results[1][0] != "/major" {
		t.Fatalf("order after reorder = %v, want [minor major]", resp.Results)
	}
}

func TestGetPagination(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	for i := 1; i <= 19; i++ {
		title := "Page"
		if err := ix.Put(ctx, "d", types.Document{URL: titleURL(i), Title: title, Popularity: float64(i)}); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	resp, err := qe.Get(ctx, "d", "pag", 10, nil)
	if err != nil || len(resp.Results) != 10 {
		t.Fatalf("default n: got %d results, want 10 (%v)", len(resp.Results), err)
	}

	resp, err = qe.Get(ctx, "d", "pag", 2, nil)
	if err != nil || len(resp.Results) != 2 {
		t.Fatalf("n=2: got %d results, want 2", len(resp.Results))
	}
}

func titleURL(i int) string {
	return "/page/" + string(rune('a'+i))
}

func TestGetMultiTermIntersection(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	docs := []types.Document{
		{URL: "/1", Title: "Four special things"},
		{URL: "/2", Title: "This is four items"},
		{URL: "/3", Title: "Fourier thinking"},
	}
	for _, d := range docs {
		if err := ix.Put(ctx, "d", d); err != nil {
			t.Fatalf("Put %s: %v", d.URL, err)
		}
	}

	resp, err := qe.Get(ctx, "d", "four", 10, nil)
	if err != nil || len(resp.Results) != 3 {
		t.Fatalf("Get(four) = %v, %v, want 3 results", resp, err)
	}

	resp, err = qe.Get(ctx, "d", "four thin", 10, nil)
	if err != nil {
		t.Fatalf("Get(four thin): %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0][0] != "/3" {
		t.Fatalf("Get(four thin) = %v, want only /3", resp.Results)
	}
}

func TestGetDeletePrecision(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	if err := ix.Put(ctx, "d", types.Document{URL: "/plog/something", Title: "ab shared"}); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if err := ix.Put(ctx, "d", types.Document{URL: "/other/url", Title: "ab shared too"}); err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if err := ix.Delete(ctx, "d", "/plog/something"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	resp, err := qe.Get(ctx, "d", "ab", 10, nil)
	if err != nil || len(resp.Results) != 1 || resp.Results[0][0] != "/other/url" {
		t.Fatalf("Get(ab) after delete = %v, %v", resp, err)
	}
}

func TestGetGroupFiltering(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	if err := ix.Put(ctx, "d", types.Document{URL: "/page/public", Title: "this is public"}); err != nil {
		t.Fatalf("Put public: %v", err)
	}
	if err := ix.Put(ctx, "d", types.Document{URL: "/page/private", Title: "this is private", Groups: []string{"private"}}); err != nil {
		t.Fatalf("Put private: %v", err)
	}

	resp, err := qe.Get(ctx, "d", "thi", 10, nil)
	if err != nil || len(resp.Results) != 1 {
		t.Fatalf("Get without group = %v, %v, want 1 result", resp, err)
	}

	resp, err = qe.Get(ctx, "d", "thi", 10, []string{"private"})
	if err != nil || len(resp.Results) != 2 {
		t.Fatalf("Get with group=private = %v, %v, want 2 results", resp, err)
	}
}

func TestGetEmptyQueryReturnsEmptyResults(t *testing.T) {
	ctx := context.Background()
	_, _, qe := setup(t)

	resp, err := qe.Get(ctx, "d", "[{(\";.!-.\")}]", 10, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Terms) != 0 || len(resp.Results) != 0 {
		t.Fatalf("resp = %+v, want empty", resp)
	}
}

func TestGetUnknownTermReturnsEmptyResults(t *testing.T) {
	ctx := context.Background()
	_, ix, qe := setup(t)

	if err := ix.Put(ctx, "d", types.Document{URL: "/x", Title: "something"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp, err := qe.Get(ctx, "d", "zzz", 10, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("results = %v, want empty", resp.Results)
	}
}
