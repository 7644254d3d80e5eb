package models

// User is the authenticated Spotify account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Track is the subset of Spotify track metadata the shuffle needs.
//
// URI is empty for local files, which cannot be added to a playlist by reference.
type Track struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artist  string `json:"artist"`
	Album   string `json:"album"`
	IsLocal bool   `json:"is_local"`
}

// TrackItem is a single playlist entry. Track is nil when the entry was removed or is unavailable.
type TrackItem struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track,omitempty"`
}

// Reference returns the URI used to add the item to another playlist.
// ok is false when the item has no track or the track has no URI.
func (i TrackItem) Reference() (uri string, ok bool) {
	if i.Track == nil || i.Track.URI == "" {
		return "", false
	}
	return i.Track.URI, true
}

// TrackPage is one page of a playlist's track listing.
//
// Next is the continuation token for the following page and is empty on the last page.
type TrackPage struct {
	Items []TrackItem `json:"items"`
	Next  string      `json:"next,omitempty"`
	Total int         `json:"total"`
}

// HasNext reports whether another page follows.
func (p TrackPage) HasNext() bool {
	return p.Next != ""
}

// Playlist is a Spotify playlist along with the page of tracks returned with it.
//
// After loading, Tracks.Items holds the complete listing in original order.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Public      bool      `json:"public"`
	TrackCount  int       `json:"track_count"`
	URL         string    `json:"url,omitempty"`
	Tracks      TrackPage `json:"-"`
}
