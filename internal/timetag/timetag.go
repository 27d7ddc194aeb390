// Package timetag reads photon arrival records produced by the FPGA
// timetagger.
//
// A record is one little-endian 64-bit word: bits 0-47 hold the timestamp in
// clock units, bits 48-51 the channel bits, bit 52 the record type (0 strobe,
// 1 delta) and bit 53 the wraparound flag. Strobe records mark photon
// arrivals on the flagged channels; delta records mark the instant the
// excitation channel bits changed state and hold that state until the next
// delta record.
package timetag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	timestampMask = uint64(1)<<48 - 1
	channelShift  = 48
	channelMask   = uint64(0xF)
	typeFlag      = uint64(1) << 52
	wrapFlag      = uint64(1) << 53
)

var ErrTruncated = errors.New("truncated timetag record")

// StrobeEvent is one photon arrival.
type StrobeEvent struct {
	T        uint64
	Channels uint8
}

// Span is a half-open time interval [Start, Start+Duration).
type Span struct {
	Start    uint64
	Duration uint64
}

// End returns the exclusive end of the span.
func (s Span) End() uint64 {
	return s.Start + s.Duration
}

type record struct {
	t        uint64
	channels uint8
	delta    bool
	wrap     bool
}

func decode(word uint64) record {
	return record{
		t:        word & timestampMask,
		channels: uint8(word >> channelShift & channelMask),
		delta:    word&typeFlag != 0,
		wrap:     word&wrapFlag != 0,
	}
}

func strobeWord(t uint64, channels uint8) uint64 {
	return (t & timestampMask) | (uint64(channels)&channelMask)<<channelShift
}

func deltaWord(t uint64, channels uint8) uint64 {
	return strobeWord(t, channels) | typeFlag
}

func wrapWord(word uint64) uint64 {
	return word | wrapFlag
}

// readRecords decodes the stream, discarding everything up to and including
// the skipWraps'th wrap-flagged record. The timetagger emits a wrap record
// whenever its counter rolls over, so pre-roll data before the configured
// number of wraps is unusable.
func readRecords(r io.Reader, skipWraps int) ([]record, error) {
	var out []record
	buf := make([]byte, 8)
	wraps := 0
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return out, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		if err != nil {
			return nil, err
		}

		rec := decode(binary.LittleEndian.Uint64(buf))
		if wraps < skipWraps {
			if rec.wrap {
				wraps++
			}
			continue
		}
		out = append(out, rec)
	}
}

// ReadStrobeEvents returns the strobe events whose channel bits intersect
// channelMask, after skipping skipWraps wraparound records.
func ReadStrobeEvents(r io.Reader, channelMask uint8, skipWraps int) ([]StrobeEvent, error) {
	records, err := readRecords(r, skipWraps)
	if err != nil {
		return nil, err
	}

	var out []StrobeEvent
	for _, rec := range records {
		if rec.delta || rec.channels&channelMask == 0 {
			continue
		}
		out = append(out, StrobeEvent{T: rec.t, Channels: rec.channels})
	}
	return out, nil
}

// ReadDeltaEvents returns the spans during which the given excitation
// channel was high, after skipping skipWraps wraparound records. A span
// still open at the end of the stream is closed at the last timestamp seen.
func ReadDeltaEvents(r io.Reader, channel int, skipWraps int) ([]Span, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("delta channel %d out of range", channel)
	}
	records, err := readRecords(r, skipWraps)
	if err != nil {
		return nil, err
	}

	bit := uint8(1) << channel
	var out []Span
	var openStart uint64
	open := false
	var lastT uint64
	for _, rec := range records {
		lastT = rec.t
		if !rec.delta {
			continue
		}
		high := rec.channels&bit != 0
		switch {
		case high && !open:
			openStart = rec.t
			open = true
		case !high && open:
			out = append(out, Span{Start: openStart, Duration: rec.t - openStart})
			open = false
		}
	}
	if open && lastT > openStart {
		out = append(out, Span{Start: openStart, Duration: lastT - openStart})
	}
	return out, nil
}

// ShiftSpans returns a copy of spans with each start moved forward by
// offset, shrinking the duration accordingly. Spans consumed entirely by the
// offset are dropped. Used to discard photons arriving while the excitation
// source is still settling.
func ShiftSpans(spans []Span, offset uint64) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Duration <= offset {
			continue
		}
		out = append(out, Span{Start: s.Start + offset, Duration: s.Duration - offset})
	}
	return out
}
