// Package memstore is an in-memory indexstore.Store, suitable for tests
// and single-process deployments that don't want a Redis dependency
// (Design Notes §9 sanctions an in-process backend for exactly this case).
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/peterbecom/autocompeter/internal/indexstore"
	"github.com/peterbecom/autocompeter/pkg/types"
)

type domainData struct {
	titles     map[string]string             // url -> title
	popularity map[string]float64            // url -> popularity
	postings   map[string]map[string]float64 // prefix -> url -> score
	reverse    map[string][]string           // url -> prefixes
	docGroups  map[string][]string           // url -> groups
	groups     map[string]map[string]struct{} // group -> urls
}

func newDomainData() *domainData {
	return &domainData{
		titles:     make(map[string]string),
		popularity: make(map[string]float64),
		postings:   make(map[string]map[string]float64),
		reverse:    make(map[string][]string),
		docGroups:  make(map[string][]string),
		groups:     make(map[string]map[string]struct{}),
	}
}

// Store is a sync.RWMutex-guarded, in-memory implementation of
// indexstore.Store. One instance serves all domains; data is partitioned
// internally by domain key.
type Store struct {
	mu      sync.RWMutex
	domains map[string]*domainData
}

// New returns an empty Store.
func New() *Store {
	return &Store{domains: make(map[string]*domainData)}
}

func (s *Store) domain(name string) *domainData {
	d, ok := s.domains[name]
	if !ok {
		d = newDomainData()
		s.domains[name] = d
	}
	return d
}

func (s *Store) TitleGet(ctx context.Context, domain, url string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domain]
	if !ok {
		return "", false, nil
	}
	title, ok := d.titles[url]
	return title, ok, nil
}

func (s *Store) ReverseGet(ctx context.Context, domain, url string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domain]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(d.reverse[url]))
	copy(out, d.reverse[url])
	return out, nil
}

func (s *Store) DocGroupsGet(ctx context.Context, domain, url string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domain]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(d.docGroups[url]))
	copy(out, d.docGroups[url])
	return out, nil
}

func (s *Store) PostingTopByScore(ctx context.Context, domain, prefix string, limit int) ([]types.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domain]
	if !ok {
		return nil, nil
	}
	entries := d.postings[prefix]
	postings := make([]types.Posting, 0, len(entries))
	for url, score := range entries {
		postings = append(postings, types.Posting{URL: url, Score: score})
	}
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].Score != postings[j].Score {
			return postings[i].Score > postings[j].Score
		}
		return postings[i].URL < postings[j].URL
	})
	if limit > 0 && len(postings) > limit {
		postings = postings[:limit]
	}
	return postings, nil
}

func (s *Store) GroupMembers(ctx context.Context, domain, group string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domain]
	if !ok {
		return map[string]struct{}{}, nil
	}
	out := make(map[string]struct{}, len(d.groups[group]))
	for url := range d.groups[group] {
		out[url] = struct{}{}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// NewPipeline returns a Pipeline that buffers mutations in memory and
// applies them all under a single write lock on Exec.
func (s *Store) NewPipeline() indexstore.Pipeline {
	return &pipeline{store: s}
}

type op func(d *domainData)

type pipeline struct {
	store *Store
	ops   []struct {
		domain string
		fn     op
	}
}

func (p *pipeline) add(domain string, fn op) {
	p.ops = append(p.ops, struct {
		domain string
		fn     op
	}{domain, fn})
}

func (p *pipeline) TitlePut(domain, url, title string) {
	p.add(domain, func(d *domainData) { d.titles[url] = title })
}

func (p *pipeline) TitleDel(domain, url string) {
	p.add(domain, func(d *domainData) { delete(d.titles, url) })
}

func (p *pipeline) PopularityPut(domain, url string, popularity float64) {
	p.add(domain, func(d *domainData) { d.popularity[url] = popularity })
}

func (p *pipeline) PopularityDel(domain, url string) {
	p.add(domain, func(d *domainData) { delete(d.popularity, url) })
}

func (p *pipeline) PostingAdd(domain, prefix, url string, score float64) {
	p.add(domain, func(d *domainData) {
		m, ok := d.postings[prefix]
		if !ok {
			m = make(map[string]float64)
			d.postings[prefix] = m
		}
		m[url] = score
	})
}

func (p *pipeline) PostingRem(domain, prefix, url string) {
	p.add(domain, func(d *domainData) {
		m, ok := d.postings[prefix]
		if !ok {
			return
		}
		delete(m, url)
		if len(m) == 0 {
			delete(d.postings, prefix)
		}
	})
}

func (p *pipeline) ReversePut(domain, url string, prefixes []string) {
	cp := make([]string, len(prefixes))
	copy(cp, prefixes)
	p.add(domain, func(d *domainData) { d.reverse[url] = cp })
}

func (p *pipeline) ReverseDel(domain, url string) {
	p.add(domain, func(d *domainData) { delete(d.reverse, url) })
}

func (p *pipeline) DocGroupsPut(domain, url string, groups []string) {
	cp := make([]string, len(groups))
	copy(cp, groups)
	p.add(domain, func(d *domainData) { d.docGroups[url] = cp })
}

func (p *pipeline) DocGroupsDel(domain, url string) {
	p.add(domain, func(d *domainData) { delete(d.docGroups, url) })
}

func (p *pipeline) GroupAdd(domain, group, url string) {
	p.add(domain, func(d *domainData) {
		m, ok := d.groups[group]
		if !ok {
			m = make(map[string]struct{})
			d.groups[group] = m
		}
		m[url] = struct{}{}
	})
}

func (p *pipeline) GroupRem(domain, group, url string) {
	p.add(domain, func(d *domainData) {
		m, ok := d.groups[group]
		if !ok {
			return
		}
		delete(m, url)
		if len(m) == 0 {
			delete(d.groups, group)
		}
	})
}

func (p *pipeline) Exec(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	for _, o := range p.ops {
		o.fn(p.store.domain(o.domain))
	}
	p.ops = nil
	return nil
}
