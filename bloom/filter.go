// Package bloom provides a probabilistic membership set for crawl keys.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a Bloom filter over string keys. A negative Test is exact; a
// positive one may be a false positive, so callers needing an exact answer
// must confirm it elsewhere.
//
// Filter is not safe for concurrent use.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n keys at the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add inserts key.
func (f *Filter) Add(key string) {
	f.f.AddString(key)
}

// Test reports whether key may have been added.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}

// EstimatedCount returns the approximate number of distinct keys added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
