package audio

import (
	"fmt"
	"sort"
	"strings"

	"auprobe/internal/services"
)

// truncationTolerance is how far, in seconds, a track may end before the
// longest track and still be ranked on bit rate.
const truncationTolerance = 1.0

var codecWeights = map[string]float64{
	"aac":    1.2,
	"vorbis": 1.2,
}

// Score returns the ranking score of track relative to the longest duration
// in its catalog.
func Score(track Track, longest float64) float64 {
	if longest-track.Duration >= truncationTolerance {
		return -1
	}
	weight, ok := codecWeights[strings.ToLower(track.Codec)]
	if !ok {
		weight = 1.0
	}
	return float64(track.BitRate) * weight
}

// SelectBest returns the highest scoring track. Tracks are visited in
// ascending index order and the first maximum wins.
func SelectBest(tracks map[int]Track) (Track, error) {
	if len(tracks) == 0 {
		return Track{}, services.Wrap(services.ErrEmptyTrackSet, "select track", "no audio tracks", nil)
	}
	indices := SortedIndices(tracks)

	longest := tracks[indices[0]].Duration
	for _, idx := range indices[1:] {
		if d := tracks[idx].Duration; d > longest {
			longest = d
		}
	}

	best := tracks[indices[0]]
	bestScore := Score(best, longest)
	for _, idx := range indices[1:] {
		candidate := tracks[idx]
		if score := Score(candidate, longest); score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, nil
}

// SortedIndices returns the track indices in ascending order.
func SortedIndices(tracks map[int]Track) []int {
	indices := make([]int, 0, len(tracks))
	for idx := range tracks {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// Describe renders every track of the catalog in index order.
func Describe(tracks map[int]Track) string {
	if len(tracks) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(tracks))
	for _, idx := range SortedIndices(tracks) {
		labels = append(labels, tracks[idx].Label())
	}
	return fmt.Sprintf("%d track(s): %s", len(labels), strings.Join(labels, "; "))
}
