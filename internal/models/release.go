package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Release statuses. The zero value means the release has not been triaged.
const (
	StatusImported = "imported"
	StatusToListen = "to listen"
)

var disambiguation = regexp.MustCompile(`\s\(\d+\)`)

// CleanName strips the catalog's numeric disambiguation suffix, e.g. "Calibre (2)" -> "Calibre".
func CleanName(name string) string {
	return strings.TrimSpace(disambiguation.ReplaceAllString(name, ""))
}

// Artist is a credited release artist.
type Artist struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Join string `json:"join,omitempty"`
}

// ReleaseLabel is the label and catalog number a release was issued on.
type ReleaseLabel struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Catno string `json:"catno,omitempty"`
}

// Track is one tracklist entry.
type Track struct {
	Position string `json:"position,omitempty"`
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
	Type     string `json:"type_,omitempty"`
}

// Format is a physical or digital format, e.g. Vinyl with descriptions ["12\"", "EP"].
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// Release is the cached form of a catalog release.
//
// A nil Tracklist marks the record as incomplete (see [Release.Complete]); an empty
// but non-nil Tracklist is complete. Status is the only field changed locally.
type Release struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title,omitempty"`
	Artists     []Artist       `json:"artists,omitempty"`
	Labels      []ReleaseLabel `json:"labels,omitempty"`
	Tracklist   []Track        `json:"tracklist"`
	Formats     []Format       `json:"formats,omitempty"`
	Genres      []string       `json:"genres,omitempty"`
	Styles      []string       `json:"styles,omitempty"`
	Year        int            `json:"year,omitempty"`
	Released    string         `json:"released,omitempty"`
	Country     string         `json:"country,omitempty"`
	Status      string         `json:"status,omitempty"`
	URI         string         `json:"uri,omitempty"`
	Thumb       string         `json:"thumb,omitempty"`
	ResourceURL string         `json:"resource_url,omitempty"`
}

// Key is the cache key for the release: its decimal id.
func (r Release) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// Complete reports whether the record carries a tracklist.
func (r Release) Complete() bool {
	return r.Tracklist != nil
}

// ArtistNames returns the credited artist names with disambiguation removed.
func (r Release) ArtistNames() []string {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		names = append(names, CleanName(a.Name))
	}
	return names
}

// ArtistLine joins [Release.ArtistNames] with ", ".
func (r Release) ArtistLine() string {
	return strings.Join(r.ArtistNames(), ", ")
}

// PrimaryLabel returns the first credited label, or the zero value.
func (r Release) PrimaryLabel() ReleaseLabel {
	if len(r.Labels) == 0 {
		return ReleaseLabel{}
	}
	return r.Labels[0]
}

// Type classifies the release from the first format's descriptions as LP, EP, Single or Release.
func (r Release) Type() string {
	if len(r.Formats) == 0 {
		return "Release"
	}
	desc := strings.ToLower(strings.Join(r.Formats[0].Descriptions, " "))
	switch {
	case strings.Contains(desc, "album"):
		return "LP"
	case strings.Contains(desc, "ep"):
		return "EP"
	case strings.Contains(desc, "single"):
		return "Single"
	default:
		return "Release"
	}
}

// WebURL is the release page on discogs.com.
func (r Release) WebURL() string {
	switch {
	case strings.HasPrefix(r.URI, "http"):
		return r.URI
	case r.URI != "":
		return "https://www.discogs.com" + r.URI
	default:
		return "https://www.discogs.com/release/" + r.Key()
	}
}

// ParseReleaseID parses a positive decimal release id.
func ParseReleaseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("release id must be a positive number, got %q", s)
	}
	return id, nil
}
