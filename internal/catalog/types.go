package catalog

// RawArtist is a credited artist as listed by the marketplace.
type RawArtist struct {
	ID           int64
	Name         string
	ResourceURL  string
	ThumbnailURL string
}

// RawFormat is one declared format block. Quantity is kept as the upstream
// string so ingestion can report a malformed value by field name.
type RawFormat struct {
	Name         string
	Quantity     string
	Text         string
	Descriptions []string
}

// RawTrack is one tracklist entry; Type is "track", "heading", or "index".
type RawTrack struct {
	Position string
	Type     string
	Title    string
	Duration string
}

// RawRelease is the canonical marketplace release handed to ingestion.
type RawRelease struct {
	ID          int64
	MasterID    int64
	Title       string
	ArtistsSort string
	Year        int
	Thumb       string
	CoverImage  string
	ResourceURL string
	Artists     []RawArtist
	Formats     []RawFormat
	Tracklist   []RawTrack
}

// Folder is a remote collection folder.
type Folder struct {
	ID          int64
	Name        string
	Count       int
	ResourceURL string
}

// FolderItem is one release listed in a remote folder.
type FolderItem struct {
	ReleaseID int64
	Title     string
}

// SearchQuery carries the attributes sent to the metadata catalog search.
type SearchQuery struct {
	Title   string
	Artist  string
	Year    int
	Mediums int
	Tracks  int
}

// Candidate is one scored metadata catalog search hit.
type Candidate struct {
	ID string
	// Score is the catalog's 0-100 relevance score.
	Score int
	// MediumFormats lists each medium's format name, e.g. "12\" Vinyl".
	MediumFormats []string
	// MediumTrackCount is the track count the catalog reports for the release.
	MediumTrackCount int
}

// SecondTrack is a normalized metadata catalog track.
type SecondTrack struct {
	ID          string
	Title       string
	Position    string
	Number      int
	Duration    string
	RecordingID string
}

// SecondRelease is a normalized metadata catalog release with its tracks
// flattened across media in medium order.
type SecondRelease struct {
	ID     string
	Title  string
	Tracks []SecondTrack
}
