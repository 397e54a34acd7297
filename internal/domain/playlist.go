package domain

import (
	"slices"
	"sort"
)

// PlaylistItem is a single ordered entry in a playlist.
// Positions are dense and one-based: a playlist with N items always has
// positions 1..N with no gaps or duplicates.
type PlaylistItem struct {
	ContentID string `json:"content_id"`
	Position  int    `json:"position"`
}

// Playlist represents an ordered sequence of content items.
// A playlist can be assigned to any number of screens; each content item
// appears at most once per playlist.
type Playlist struct {
	Timestamps
	OwnerID string         `json:"owner_id"`
	Name    string         `json:"name"`
	Items   []PlaylistItem `json:"items"`
}

// ContainsContent checks if a content item is already in this playlist.
func (p *Playlist) ContainsContent(contentID string) bool {
	return slices.ContainsFunc(p.Items, func(it PlaylistItem) bool {
		return it.ContentID == contentID
	})
}

// ContentIDs returns the playlist's content IDs in display order.
func (p *Playlist) ContentIDs() []string {
	ids := make([]string, len(p.Items))
	for i, it := range p.Items {
		ids[i] = it.ContentID
	}
	return ids
}

// AddItems appends content IDs to the end of the playlist, skipping any
// already present. Returns the number of items actually added.
func (p *Playlist) AddItems(contentIDs ...string) int {
	added := 0
	for _, id := range contentIDs {
		if id == "" || p.ContainsContent(id) {
			continue
		}
		p.Items = append(p.Items, PlaylistItem{
			ContentID: id,
			Position:  len(p.Items) + 1,
		})
		added++
	}
	return added
}

// RemoveItem removes a content item from the playlist and renumbers the
// remaining items. Returns false if the item was not present.
func (p *Playlist) RemoveItem(contentID string) bool {
	for i, it := range p.Items {
		if it.ContentID == contentID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			p.renumber()
			return true
		}
	}
	return false
}

// MoveItem moves a content item to the given one-based position, shifting
// the items in between. Positions outside 1..N are clamped. Returns false
// if the item is not in the playlist.
func (p *Playlist) MoveItem(contentID string, position int) bool {
	from := -1
	for i, it := range p.Items {
		if it.ContentID == contentID {
			from = i
			break
		}
	}
	if from == -1 {
		return false
	}

	if position < 1 {
		position = 1
	}
	if position > len(p.Items) {
		position = len(p.Items)
	}
	to := position - 1

	item := p.Items[from]
	p.Items = append(p.Items[:from], p.Items[from+1:]...)
	p.Items = slices.Insert(p.Items, to, item)
	p.renumber()
	return true
}

// Normalize sorts items by position and renumbers them densely from 1.
// Stored playlists should already be normalized; this repairs any gaps
// left by older writes.
func (p *Playlist) Normalize() {
	sort.SliceStable(p.Items, func(i, j int) bool {
		return p.Items[i].Position < p.Items[j].Position
	})
	p.renumber()
}

// renumber rewrites positions densely from 1 in current slice order.
func (p *Playlist) renumber() {
	for i := range p.Items {
		p.Items[i].Position = i + 1
	}
}
