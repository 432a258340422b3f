package domain

// Recommendation is the outcome of a description-based request.
type Recommendation struct {
	FilteredTracks []Track
	SelectedTags   []string
	MappedSeedTags []string
	// Vocabulary is every distinct normalized tag seen, in first-seen order.
	Vocabulary []string
}

// DistinctTags collects the distinct normalized tags across tracks, in first-seen order.
func DistinctTags(tracks []Track) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range tracks {
		for _, tag := range t.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
