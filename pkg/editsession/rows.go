// Package editsession holds the client side of code maintenance: a working
// copy of the codes tree with per-row edit markers, the three column
// selection, and the batch save protocol against the codes API.
package editsession

import (
	"errors"
	"fmt"

	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
)

// Marker is the pending edit state of a row.
type Marker string

const (
	MarkerNone          Marker = ""
	MarkerPendingCreate Marker = "pendingCreate"
	MarkerPendingUpdate Marker = "pendingUpdate"
	MarkerPendingDelete Marker = "pendingDelete"
)

// IsPending reports whether the row carries an unsaved change.
func (m Marker) IsPending() bool { return m != MarkerNone }

func (m Marker) String() string {
	if m == MarkerNone {
		return "none"
	}
	return string(m)
}

var (
	ErrKeyImmutable        = errors.New("natural key can only be edited on unsaved rows")
	ErrPendingCreateExists = errors.New("an unsaved new row already exists")
	ErrCommitInProgress    = errors.New("a save is in progress")
	ErrNoSelection         = errors.New("no parent row selected")
	ErrRowNotFound         = errors.New("row not found")
)

// IndexError reports an index outside a level's rows.
type IndexError struct {
	Level valueobjects.Level
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Level, e.Index, e.Len)
}

// MajorRow is a major category with its edit marker.
type MajorRow struct {
	entities.MajorCategory
	Marker Marker
	TempID valueobjects.TempID
}

// MidRow is a mid category with its edit marker.
type MidRow struct {
	entities.MidCategory
	Marker Marker
	TempID valueobjects.TempID
}

// SubRow is a sub category with its edit marker.
type SubRow struct {
	entities.SubCategory
	Marker Marker
	TempID valueobjects.TempID
}

// rowKey identifies a row across reloads: by surrogate id once stored, by
// temporary id before that.
type rowKey struct {
	id   int
	temp valueobjects.TempID
}

func (k rowKey) isZero() bool { return k.id == 0 && k.temp == "" }

func (r MajorRow) key() rowKey {
	if r.Marker == MarkerPendingCreate {
		return rowKey{temp: r.TempID}
	}
	return rowKey{id: r.MajorCatID}
}

func (r MidRow) key() rowKey {
	if r.Marker == MarkerPendingCreate {
		return rowKey{temp: r.TempID}
	}
	return rowKey{id: r.MidCatID}
}

func (r SubRow) key() rowKey {
	if r.Marker == MarkerPendingCreate {
		return rowKey{temp: r.TempID}
	}
	return rowKey{id: r.ID}
}

// Indexed pairs a row with its position in the store, which is the index
// the mutators take.
type Indexed[T any] struct {
	Index int
	Row   T
}
