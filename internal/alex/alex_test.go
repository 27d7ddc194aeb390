package alex

import (
	"errors"
	"math"
	"testing"

	"photonlab/internal/timetag"
)

func strobes(times ...uint64) []timetag.StrobeEvent {
	out := make([]timetag.StrobeEvent, len(times))
	for i, t := range times {
		out[i] = timetag.StrobeEvent{T: t}
	}
	return out
}

func alternation() Input {
	return Input{
		DonorEmission:    strobes(10, 20, 110, 210),
		AcceptorEmission: strobes(30, 150, 160, 250, 350),
		DonorExcitation: []timetag.Span{
			{Start: 0, Duration: 100},
			{Start: 200, Duration: 100},
		},
		AcceptorExcitation: []timetag.Span{
			{Start: 100, Duration: 100},
			{Start: 300, Duration: 100},
		},
	}
}

func TestBinChannels(t *testing.T) {
	bins, err := BinChannels(alternation(), Config{BinWidth: 100})
	if err != nil {
		t.Fatalf("bin channels: %v", err)
	}

	if bins.Start != 10 {
		t.Fatalf("expected common range start 10, got %d", bins.Start)
	}
	if bins.NumBins() != 3 {
		t.Fatalf("expected 3 bins, got %d", bins.NumBins())
	}

	check := func(name string, got, want []int) {
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", name, want, got)
			}
		}
	}
	check("Dem/Dexc", bins.DemDexc, []int{2, 0, 1})
	check("Dem/Aexc", bins.DemAexc, []int{0, 1, 0})
	check("Aem/Dexc", bins.AemDexc, []int{1, 0, 1})
	check("Aem/Aexc", bins.AemAexc, []int{0, 2, 0})
}

func TestBinChannelsExcitationOffset(t *testing.T) {
	in := Input{
		DonorEmission:      strobes(2, 10, 50, 120),
		AcceptorEmission:   strobes(20, 150),
		DonorExcitation:    []timetag.Span{{Start: 0, Duration: 100}},
		AcceptorExcitation: []timetag.Span{{Start: 100, Duration: 100}},
	}

	bins, err := BinChannels(in, Config{BinWidth: 10, ExcitationOffset: 5})
	if err != nil {
		t.Fatalf("bin channels: %v", err)
	}

	// The donor photon at t=2 arrives inside the settling offset and must
	// not be counted; the one at t=120 lands in the shifted acceptor window.
	total := func(counts []int) int {
		n := 0
		for _, c := range counts {
			n += c
		}
		return n
	}
	if got := total(bins.DemDexc); got != 2 {
		t.Fatalf("expected 2 donor photons after settling cut, got %d", got)
	}
	if got := total(bins.DemAexc); got != 1 {
		t.Fatalf("expected 1 donor photon under acceptor excitation, got %d", got)
	}
}

func TestBinChannelsEmptyChannel(t *testing.T) {
	in := alternation()
	in.AcceptorEmission = nil
	if _, err := BinChannels(in, Config{BinWidth: 100}); !errors.Is(err, ErrNoPhotons) {
		t.Fatalf("expected ErrNoPhotons, got %v", err)
	}
}

func TestProximityRatioDropsUndefinedBins(t *testing.T) {
	bins, err := BinChannels(alternation(), Config{BinWidth: 100})
	if err != nil {
		t.Fatalf("bin channels: %v", err)
	}

	e := ProximityRatio(bins)
	if len(e) != 2 {
		t.Fatalf("expected the zero-denominator bin dropped, got %v", e)
	}
	if math.Abs(e[0]-1.0/3.0) > 1e-12 || math.Abs(e[1]-0.5) > 1e-12 {
		t.Fatalf("unexpected proximity ratios: %v", e)
	}
}

func TestStoichiometry(t *testing.T) {
	bins, err := BinChannels(alternation(), Config{BinWidth: 100})
	if err != nil {
		t.Fatalf("bin channels: %v", err)
	}

	s := Stoichiometry(bins)
	want := []float64{1, 0, 1}
	if len(s) != len(want) {
		t.Fatalf("expected %v, got %v", want, s)
	}
	for i := range want {
		if math.Abs(s[i]-want[i]) > 1e-12 {
			t.Fatalf("expected %v, got %v", want, s)
		}
	}
}

func TestSummarize(t *testing.T) {
	sum, err := Summarize([]float64{0.2, 0.4, 0.6})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.N != 3 {
		t.Fatalf("expected n=3, got %d", sum.N)
	}
	if math.Abs(sum.Mean-0.4) > 1e-12 || math.Abs(sum.Median-0.4) > 1e-12 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	if _, err := Summarize(nil); err == nil {
		t.Fatal("expected error for empty series")
	}
}
