package playback

import (
	"math/rand"

	"github.com/samber/lo"

	"github.com/duetfm/duet/internal/models"
)

// spreadWindow is how far ahead the corrective pass looks for a swap
// candidate when two adjacent tracks share an artist or album.
const spreadWindow = 10

// Permutation is a shuffled play order over a track list. It is a bijection
// on [0, n): every index appears exactly once.
type Permutation struct {
	order []int
	pos   int
}

// NewPermutation builds an unbiased Fisher-Yates permutation of the tracks,
// then makes one corrective pass separating adjacent same-artist and
// same-album pairs, and finally positions the pointer on start so toggling
// shuffle mid-playlist does not interrupt the playing track.
func NewPermutation(tracks []models.Track, start int, rng *rand.Rand) *Permutation {
	n := len(tracks)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	spreadAdjacent(tracks, order)

	p := &Permutation{order: order}
	for i, idx := range order {
		if idx == start {
			p.pos = i
			break
		}
	}
	return p
}

// spreadAdjacent walks the order once and, for each adjacent violating pair,
// searches a bounded forward window for a replacement that resolves it.
// Swapped-in entries are not re-checked at the swap site; the pass is best
// effort and always terminates.
func spreadAdjacent(tracks []models.Track, order []int) {
	n := len(order)
	for i := 0; i < n-1; i++ {
		if !violates(tracks[order[i]], tracks[order[i+1]]) {
			continue
		}
		limit := min(i+1+spreadWindow, n-1)
		for j := i + 2; j <= limit; j++ {
			if !violates(tracks[order[i]], tracks[order[j]]) {
				order[i+1], order[j] = order[j], order[i+1]
				break
			}
		}
	}
}

func violates(a, b models.Track) bool {
	return sameArtist(a, b) || sameAlbum(a, b)
}

// sameArtist compares identity, not display names. Tracks from different
// sources are never considered the same artist even when the names match,
// because neither provider's IDs mean anything to the other.
func sameArtist(a, b models.Track) bool {
	if a.Source != b.Source {
		return false
	}

	switch a.Source {
	case models.SourceSpotify:
		return lo.SomeBy(a.ArtistIDs, func(id string) bool {
			return lo.Contains(b.ArtistIDs, id)
		})
	case models.SourceSoundCloud:
		return a.UploaderID != "" && a.UploaderID == b.UploaderID
	}
	return false
}

// sameAlbum only applies to Spotify pairs; the other provider has no album
// concept on its track payloads.
func sameAlbum(a, b models.Track) bool {
	if a.Source != models.SourceSpotify || b.Source != models.SourceSpotify {
		return false
	}
	return a.Album != "" && a.Album == b.Album
}

// Current returns the track index under the pointer.
func (p *Permutation) Current() int { return p.order[p.pos] }

// Advance moves the pointer forward with wraparound and returns the new
// track index.
func (p *Permutation) Advance() int {
	p.pos = (p.pos + 1) % len(p.order)
	return p.order[p.pos]
}

// Retreat moves the pointer backward with wraparound and returns the new
// track index.
func (p *Permutation) Retreat() int {
	p.pos = (p.pos - 1 + len(p.order)) % len(p.order)
	return p.order[p.pos]
}

// Len returns the permutation size.
func (p *Permutation) Len() int { return len(p.order) }
