package domain

import "fmt"

// MediaItem is one downloadable audio source resolved from a URL
type MediaItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
	SourcePageURL   string `json:"source_page_url"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	Uploader        string `json:"uploader,omitempty"`
}

// FormatDuration renders the duration as m:ss, or h:mm:ss past an hour
func (m MediaItem) FormatDuration() string {
	d := m.DurationSeconds
	if d < 0 {
		d = 0
	}
	h, min, sec := d/3600, (d%3600)/60, d%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, sec)
	}
	return fmt.Sprintf("%d:%02d", min, sec)
}

// PlaylistResolution is the outcome of resolving a URL: either a single
// item or an ordered list of playlist entries.
type PlaylistResolution struct {
	Title    string      `json:"title,omitempty"`
	Playlist bool        `json:"playlist"`
	Entries  []MediaItem `json:"entries"`
}

// NewSingleResolution wraps a single item
func NewSingleResolution(item MediaItem) *PlaylistResolution {
	return &PlaylistResolution{Title: item.Title, Entries: []MediaItem{item}}
}

// NewPlaylistResolution wraps playlist entries in resolved order
func NewPlaylistResolution(title string, entries []MediaItem) *PlaylistResolution {
	return &PlaylistResolution{Title: title, Playlist: true, Entries: entries}
}

// IsPlaylist reports whether the URL resolved to a playlist
func (p *PlaylistResolution) IsPlaylist() bool {
	return p.Playlist
}

// Items returns the entries in resolved order
func (p *PlaylistResolution) Items() []MediaItem {
	out := make([]MediaItem, len(p.Entries))
	copy(out, p.Entries)
	return out
}

// Select returns the items a job should download. A playlist that is not
// expanded yields only its first entry.
func (p *PlaylistResolution) Select(expand bool) []MediaItem {
	if len(p.Entries) == 0 {
		return nil
	}
	if p.Playlist && expand {
		return p.Items()
	}
	return []MediaItem{p.Entries[0]}
}
