package models

import (
	"errors"
	"time"
)

// ShuffleRun records a destination playlist created from a source playlist.
type ShuffleRun struct {
	id         string
	sequence   int
	sourceID   string
	sourceName string
	destID     string
	destName   string
	destURL    string
	trackCount int
	public     bool
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewShuffleRun builds a run from the source and the created destination.
func NewShuffleRun(source, destination *Playlist, trackCount int) *ShuffleRun {
	now := time.Now()
	return &ShuffleRun{
		sourceID:   source.ID,
		sourceName: source.Name,
		destID:     destination.ID,
		destName:   destination.Name,
		destURL:    destination.URL,
		trackCount: trackCount,
		public:     destination.Public,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreShuffleRun rebuilds a run from persisted columns.
func RestoreShuffleRun(
	id string, sequence int,
	sourceID, sourceName, destID, destName, destURL string,
	trackCount int, public bool,
	createdAt, updatedAt time.Time, deletedAt *time.Time,
) *ShuffleRun {
	return &ShuffleRun{
		id:         id,
		sequence:   sequence,
		sourceID:   sourceID,
		sourceName: sourceName,
		destID:     destID,
		destName:   destName,
		destURL:    destURL,
		trackCount: trackCount,
		public:     public,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (r *ShuffleRun) ID() string { return r.id }
func (r *ShuffleRun) Sequence() int { return r.sequence }
func (r *ShuffleRun) SourceID() string { return r.sourceID }
func (r *ShuffleRun) SourceName() string { return r.sourceName }
func (r *ShuffleRun) DestID() string { return r.destID }
func (r *ShuffleRun) DestName() string { return r.destName }
func (r *ShuffleRun) DestURL() string { return r.destURL }
func (r *ShuffleRun) TrackCount() int { return r.trackCount }
func (r *ShuffleRun) Public() bool { return r.public }
func (r *ShuffleRun) CreatedAt() time.Time { return r.createdAt }
func (r *ShuffleRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *ShuffleRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *ShuffleRun) SetID(id string) { r.id = id }
func (r *ShuffleRun) SetSequence(seq int) { r.sequence = seq }
func (r *ShuffleRun) SetDestName(name string) { r.destName = name }
func (r *ShuffleRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *ShuffleRun) SetTrackCount(count int) { r.trackCount = count }

// Validate checks that both playlists are identified and the count is sane.
func (r *ShuffleRun) Validate() error {
	if r.id == "" {
		return errors.New("shuffle run ID is required")
	}
	if r.sourceID == "" {
		return errors.New("source playlist ID is required")
	}
	if r.destID == "" {
		return errors.New("destination playlist ID is required")
	}
	if r.trackCount < 0 {
		return errors.New("track count cannot be negative")
	}
	return nil
}
