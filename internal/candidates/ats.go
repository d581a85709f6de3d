package candidates

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrUnknownProvider is returned when an ATS provider has no data source.
var ErrUnknownProvider = errors.New("unknown ATS provider")

// ATSSource fetches candidates from an applicant tracking system.
//
// Fetch must honor ctx cancellation. Failures are returned to the caller and
// never touch the workflow document.
type ATSSource interface {
	Fetch(ctx context.Context, provider string) (List, error)
}

// MockATS serves canned candidates per provider after a simulated network
// delay. It stands in for real ATS integrations in demos and tests.
type MockATS struct {
	// Delay is the simulated round-trip time. Zero returns immediately.
	Delay time.Duration

	// Candidates maps provider name to the rows it returns.
	Candidates map[string]List
}

// NewMockATS creates a [MockATS] with sample data for the common providers.
func NewMockATS(delay time.Duration) *MockATS {
	return &MockATS{
		Delay: delay,
		Candidates: map[string]List{
			"greenhouse": {
				withATS(NewRecord("ada@example.com", "Ada Lovelace", "+1 555 0100"), "gh-101", "Backend Engineer"),
				withATS(NewRecord("grace@example.com", "Grace Hopper", ""), "gh-102", "Backend Engineer"),
				withATS(NewRecord("not-an-email", "Broken Row", ""), "gh-103", ""),
			},
			"lever": {
				withATS(NewRecord("linus@example.org", "Linus Torvalds", ""), "lv-7", "Platform Engineer"),
			},
			"workday": {
				withATS(NewRecord("barbara@example.net", "Barbara Liskov", ""), "wd-1", "Staff Engineer"),
				withATS(NewRecord("ken@example.net", "Ken Thompson", ""), "wd-2", "Staff Engineer"),
			},
		},
	}
}

func withATS(r Record, id, jobTitle string) Record {
	r.ATSID = id
	r.JobTitle = jobTitle
	return r
}

// Providers returns the provider names in sorted order.
func (m *MockATS) Providers() []string {
	names := make([]string, 0, len(m.Candidates))
	for name := range m.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch returns a copy of the provider's canned rows.
func (m *MockATS) Fetch(ctx context.Context, provider string) (List, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, ok := m.Candidates[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return append(List(nil), rows...), nil
}

// FeedSource reads ATS exports from a directory of JSON-lines files named
// <provider>.jsonl.
type FeedSource struct {
	Dir    string
	Parser *FeedParser
}

// NewFeedSource creates a [FeedSource] rooted at dir.
func NewFeedSource(dir string) *FeedSource {
	return &FeedSource{Dir: dir, Parser: NewFeedParser()}
}

// Fetch parses <Dir>/<provider>.jsonl. Cancelling ctx stops collection early.
func (s *FeedSource) Fetch(ctx context.Context, provider string) (List, error) {
	if provider == "" || filepath.Base(provider) != provider {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	f, err := os.Open(filepath.Join(s.Dir, provider+".jsonl"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
		}
		return nil, fmt.Errorf("failed to open ATS feed: %w", err)
	}
	defer f.Close()

	parser := s.Parser
	if parser == nil {
		parser = NewFeedParser()
	}

	var list List
	records := parser.Parse(f)
	for {
		select {
		case <-ctx.Done():
			go drain(records)
			return nil, ctx.Err()
		case rec, ok := <-records:
			if !ok {
				return list, nil
			}
			list = append(list, rec)
		}
	}
}

func drain(records <-chan Record) {
	for range records {
	}
}
