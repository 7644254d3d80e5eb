package models

import "time"

// Model is implemented by every entity stored in the history database.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // checked before every insert
}

// ListOptions narrows a listing. The zero value lists everything, newest first.
type ListOptions struct {
	SourceID string // only entries created from this source playlist
	Limit    int    // non-positive means no limit
}

// Repository is the data access contract for a [Model] type.
//
// Get, Update and Delete ignore soft-deleted rows and fail when the id is unknown.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(opts ListOptions) ([]T, error)
}
