// Package alex implements the alternating-laser-excitation burst analysis:
// strobe photons split by emission channel and excitation period, binned into
// the four channel combinations, and reduced to per-bin proximity ratio and
// stoichiometry series.
package alex

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"photonlab/internal/binning"
	"photonlab/internal/timetag"
)

var ErrNoPhotons = errors.New("no photons in channel")

// Config controls the binning step.
type Config struct {
	// BinWidth is the bin width in clock units.
	BinWidth uint64
	// ExcitationOffset discards photons arriving within this many clock
	// units of an excitation period start, while the source settles.
	ExcitationOffset uint64
}

// Input is the four raw streams of one ALEX measurement: two emission
// channels and the excitation periods of the two lasers.
type Input struct {
	DonorEmission      []timetag.StrobeEvent
	AcceptorEmission   []timetag.StrobeEvent
	DonorExcitation    []timetag.Span
	AcceptorExcitation []timetag.Span
}

// Bins holds the binned counts of the four emission/excitation combinations
// over a common time range. All four slices have equal length.
type Bins struct {
	Start uint64
	Width uint64

	DemDexc []int
	DemAexc []int
	AemDexc []int
	AemAexc []int
}

// NumBins reports the number of bins in each series.
func (b Bins) NumBins() int {
	return len(b.DemDexc)
}

// BinChannels filters each emission stream by each excitation span set and
// bins all four combinations over the common range spanned by the filtered
// streams.
func BinChannels(in Input, cfg Config) (Bins, error) {
	if cfg.BinWidth == 0 {
		return Bins{}, binning.ErrZeroWidth
	}

	dexc := timetag.ShiftSpans(in.DonorExcitation, cfg.ExcitationOffset)
	aexc := timetag.ShiftSpans(in.AcceptorExcitation, cfg.ExcitationOffset)

	streams := []struct {
		name   string
		events []timetag.StrobeEvent
	}{
		{"Dem/Dexc", timetag.FilterBySpans(in.DonorEmission, dexc)},
		{"Dem/Aexc", timetag.FilterBySpans(in.DonorEmission, aexc)},
		{"Aem/Dexc", timetag.FilterBySpans(in.AcceptorEmission, dexc)},
		{"Aem/Aexc", timetag.FilterBySpans(in.AcceptorEmission, aexc)},
	}

	times := make([][]uint64, len(streams))
	for i, s := range streams {
		if len(s.events) == 0 {
			return Bins{}, fmt.Errorf("%w: %s", ErrNoPhotons, s.name)
		}
		ts := make([]uint64, len(s.events))
		for j, e := range s.events {
			ts[j] = e.T
		}
		times[i] = ts
	}

	start := times[0][0]
	end := times[0][len(times[0])-1]
	for _, ts := range times[1:] {
		if ts[0] < start {
			start = ts[0]
		}
		if last := ts[len(ts)-1]; last > end {
			end = last
		}
	}

	counts := make([][]int, len(times))
	for i, ts := range times {
		bins, err := binning.BinPhotons(ts, cfg.BinWidth, start, end)
		if err != nil {
			return Bins{}, err
		}
		counts[i] = binning.Counts(bins)
	}

	return Bins{
		Start:   start,
		Width:   cfg.BinWidth,
		DemDexc: counts[0],
		DemAexc: counts[1],
		AemDexc: counts[2],
		AemAexc: counts[3],
	}, nil
}

// ProximityRatio returns the per-bin raw FRET proximity ratio
// E = Aem_Dexc / (Aem_Dexc + Dem_Dexc). Bins with a zero denominator would
// be NaN and are dropped from the series.
func ProximityRatio(b Bins) []float64 {
	out := make([]float64, 0, b.NumBins())
	for i := range b.DemDexc {
		den := float64(b.AemDexc[i] + b.DemDexc[i])
		if den == 0 {
			continue
		}
		out = append(out, float64(b.AemDexc[i])/den)
	}
	return out
}

// Stoichiometry returns the per-bin raw stoichiometry
// S = (Dem_Dexc + Aem_Dexc) / (Dem_Dexc + Aem_Dexc + Aem_Aexc), with
// zero-denominator bins dropped.
func Stoichiometry(b Bins) []float64 {
	out := make([]float64, 0, b.NumBins())
	for i := range b.DemDexc {
		dexc := float64(b.DemDexc[i] + b.AemDexc[i])
		den := dexc + float64(b.AemAexc[i])
		if den == 0 {
			continue
		}
		out = append(out, dexc/den)
	}
	return out
}

// Summary describes one derived burst series.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
}

// Summarize reduces a derived series to its summary statistics.
func Summarize(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, errors.New("empty series")
	}

	mean, err := stats.Mean(series)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(series)
	if err != nil {
		return Summary{}, err
	}
	stdev, err := stats.StandardDeviation(series)
	if err != nil {
		return Summary{}, err
	}

	return Summary{N: len(series), Mean: mean, Median: median, StdDev: stdev}, nil
}
