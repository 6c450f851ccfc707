package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"platter/internal/library"
)

// Kind describes how to find and create one entity type by its natural key.
type Kind[T any] struct {
	Name string
	// Lookup returns the stored entity matching candidate's natural key, if any.
	Lookup func(ctx context.Context, tx *library.Tx, candidate T) (T, bool, error)
	// Create stages candidate and returns the stored entity.
	Create func(ctx context.Context, tx *library.Tx, candidate T) (T, error)
}

// Resolve returns the entity matching candidate's natural key, creating it from
// candidate when absent. created reports whether a new row was staged.
func Resolve[T any](ctx context.Context, tx *library.Tx, kind Kind[T], candidate T) (T, bool, error) {
	var zero T
	if tx == nil {
		return zero, false, errors.New("resolve requires a unit of work")
	}
	found, ok, err := kind.Lookup(ctx, tx, candidate)
	if err != nil {
		return zero, false, fmt.Errorf("resolve %s: %w", kind.Name, err)
	}
	if ok {
		return found, false, nil
	}
	created, err := kind.Create(ctx, tx, candidate)
	if err != nil {
		return zero, false, fmt.Errorf("resolve %s: %w", kind.Name, err)
	}
	return created, true, nil
}

// Artist resolves artists by marketplace id.
var Artist = Kind[library.Artist]{
	Name: "artist",
	Lookup: func(ctx context.Context, tx *library.Tx, c library.Artist) (library.Artist, bool, error) {
		found, err := tx.ArtistBySourceID(ctx, c.SourceID)
		if err != nil || found == nil {
			return library.Artist{}, false, err
		}
		return *found, true, nil
	},
	Create: func(ctx context.Context, tx *library.Tx, c library.Artist) (library.Artist, error) {
		err := tx.InsertArtist(ctx, &c)
		return c, err
	},
}

// FormatDescription resolves format descriptions by their text.
var FormatDescription = Kind[library.FormatDescription]{
	Name: "format description",
	Lookup: func(ctx context.Context, tx *library.Tx, c library.FormatDescription) (library.FormatDescription, bool, error) {
		found, err := tx.FormatDescriptionByText(ctx, strings.TrimSpace(c.Text))
		if err != nil || found == nil {
			return library.FormatDescription{}, false, err
		}
		return *found, true, nil
	},
	Create: func(ctx context.Context, tx *library.Tx, c library.FormatDescription) (library.FormatDescription, error) {
		c.Text = strings.TrimSpace(c.Text)
		err := tx.InsertFormatDescription(ctx, &c)
		return c, err
	},
}

// SecondRelease resolves cached metadata catalog releases by MBID. Tracks on
// the candidate are not stored; use SecondTrack for those.
var SecondRelease = Kind[library.SecondRelease]{
	Name: "second-catalog release",
	Lookup: func(ctx context.Context, tx *library.Tx, c library.SecondRelease) (library.SecondRelease, bool, error) {
		found, err := tx.SecondReleaseByMBID(ctx, c.MBID)
		if err != nil || found == nil {
			return library.SecondRelease{}, false, err
		}
		return *found, true, nil
	},
	Create: func(ctx context.Context, tx *library.Tx, c library.SecondRelease) (library.SecondRelease, error) {
		c.Tracks = nil
		err := tx.InsertSecondRelease(ctx, &c)
		return c, err
	},
}

// SecondTrack builds the kind for tracks of one cached release; seq is taken
// from the candidate's position in the release's flattened track list.
func SecondTrack(seq int) Kind[library.SecondTrack] {
	return Kind[library.SecondTrack]{
		Name: "second-catalog track",
		Lookup: func(ctx context.Context, tx *library.Tx, c library.SecondTrack) (library.SecondTrack, bool, error) {
			found, err := tx.SecondTrackByMBID(ctx, c.MBID)
			if err != nil || found == nil {
				return library.SecondTrack{}, false, err
			}
			return *found, true, nil
		},
		Create: func(ctx context.Context, tx *library.Tx, c library.SecondTrack) (library.SecondTrack, error) {
			err := tx.InsertSecondTrack(ctx, &c, seq)
			return c, err
		},
	}
}
