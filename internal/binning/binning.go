// Package binning accumulates photon arrival timestamps into fixed-width
// time bins.
package binning

import "errors"

var ErrZeroWidth = errors.New("bin width must be positive")

// Bin is one fixed-width time bin.
type Bin struct {
	Start uint64
	Count int
}

// BinPhotons bins the ordered timestamps over [start, end) into bins of the
// given width. Only complete bins are produced: the trailing partial bin is
// discarded, as are timestamps outside the binned range.
func BinPhotons(times []uint64, width, start, end uint64) ([]Bin, error) {
	if width == 0 {
		return nil, ErrZeroWidth
	}
	if end < start {
		return nil, errors.New("bin range end precedes start")
	}

	n := (end - start) / width
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Start = start + uint64(i)*width
	}

	limit := start + n*width
	for _, t := range times {
		if t < start || t >= limit {
			continue
		}
		bins[(t-start)/width].Count++
	}
	return bins, nil
}

// BinAll bins over the full extent of times, from the first timestamp
// through the last.
func BinAll(times []uint64, width uint64) ([]Bin, error) {
	if len(times) == 0 {
		return nil, errors.New("no timestamps to bin")
	}
	return BinPhotons(times, width, times[0], times[len(times)-1])
}

// Counts extracts the per-bin photon counts.
func Counts(bins []Bin) []int {
	out := make([]int, len(bins))
	for i, b := range bins {
		out[i] = b.Count
	}
	return out
}
