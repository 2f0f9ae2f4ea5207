package guide2pdf

// SegmentTemplates partitions templates into maximal runs of the same kind.
// Concatenating the segments' templates gives back the input in order, and
// no two adjacent segments share a kind. An empty input yields no segments.
func SegmentTemplates(templates []Template) []Segment {
	var segments []Segment
	for _, t := range templates {
		n := len(segments)
		if n > 0 && segments[n-1].Kind == t.Kind {
			segments[n-1].Templates = append(segments[n-1].Templates, t)
			continue
		}
		segments = append(segments, Segment{Kind: t.Kind, Templates: []Template{t}})
	}
	return segments
}
