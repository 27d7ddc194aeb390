package timetag

// FilterBySpans returns the subsequence of events whose timestamps fall
// within any of the spans. Both inputs must be ordered by time; spans must
// not overlap. Runs as a single linear merge.
func FilterBySpans(events []StrobeEvent, spans []Span) []StrobeEvent {
	var out []StrobeEvent
	i := 0
	for _, span := range spans {
		for i < len(events) && events[i].T < span.Start {
			i++
		}
		for i < len(events) && events[i].T < span.End() {
			out = append(out, events[i])
			i++
		}
	}
	return out
}
