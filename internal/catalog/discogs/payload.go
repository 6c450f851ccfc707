package discogs

import (
	"encoding/json"
	"strings"

	"platter/internal/catalog"
)

type foldersResponse struct {
	Folders []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Count       int    `json:"count"`
		ResourceURL string `json:"resource_url"`
	} `json:"folders"`
}

type folderReleasesResponse struct {
	Pagination struct {
		Page  int `json:"page"`
		Pages int `json:"pages"`
	} `json:"pagination"`
	Releases []struct {
		ID               int64 `json:"id"`
		BasicInformation struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"basic_information"`
	} `json:"releases"`
}

// flexString accepts a JSON string or number; the marketplace sends format
// quantities as strings but older payloads use numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type releaseResponse struct {
	ID          int64  `json:"id"`
	MasterID    int64  `json:"master_id"`
	Title       string `json:"title"`
	ArtistsSort string `json:"artists_sort"`
	Year        int    `json:"year"`
	Thumb       string `json:"thumb"`
	CoverImage  string `json:"cover_image"`
	ResourceURL string `json:"resource_url"`
	Images      []struct {
		Type string `json:"type"`
		URI  string `json:"uri"`
	} `json:"images"`
	Artists []struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		ResourceURL  string `json:"resource_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"artists"`
	Formats []struct {
		Name         string     `json:"name"`
		Qty          flexString `json:"qty"`
		Text         string     `json:"text"`
		Descriptions []string   `json:"descriptions"`
	} `json:"formats"`
	Tracklist []struct {
		Position string `json:"position"`
		Type     string `json:"type_"`
		Title    string `json:"title"`
		Duration string `json:"duration"`
	} `json:"tracklist"`
}

func (r releaseResponse) coverImage() string {
	if r.CoverImage != "" {
		return r.CoverImage
	}
	for _, img := range r.Images {
		if img.Type == "primary" {
			return img.URI
		}
	}
	if len(r.Images) > 0 {
		return r.Images[0].URI
	}
	return ""
}

func (r releaseResponse) toRaw() *catalog.RawRelease {
	raw := &catalog.RawRelease{
		ID:          r.ID,
		MasterID:    r.MasterID,
		Title:       r.Title,
		ArtistsSort: r.ArtistsSort,
		Year:        r.Year,
		Thumb:       r.Thumb,
		CoverImage:  r.coverImage(),
		ResourceURL: r.ResourceURL,
	}
	for _, a := range r.Artists {
		raw.Artists = append(raw.Artists, catalog.RawArtist{
			ID:           a.ID,
			Name:         a.Name,
			ResourceURL:  a.ResourceURL,
			ThumbnailURL: a.ThumbnailURL,
		})
	}
	for _, f := range r.Formats {
		qty := strings.TrimSpace(string(f.Qty))
		if qty == "" {
			qty = "1"
		}
		raw.Formats = append(raw.Formats, catalog.RawFormat{
			Name:         f.Name,
			Quantity:     qty,
			Text:         f.Text,
			Descriptions: append([]string(nil), f.Descriptions...),
		})
	}
	for _, t := range r.Tracklist {
		raw.Tracklist = append(raw.Tracklist, catalog.RawTrack{
			Position: t.Position,
			Type:     t.Type,
			Title:    t.Title,
			Duration: t.Duration,
		})
	}
	return raw
}
