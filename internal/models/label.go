package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is a record label as it sits in the queue and in the completed list.
//
// Identity is ID; Name is display only.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LabelDetails is the label profile returned by GET /labels/{id}.
type LabelDetails struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Profile     string `json:"profile,omitempty"`
	URI         string `json:"uri,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
	ReleasesURL string `json:"releases_url,omitempty"`
}

// Label converts the profile into a queue entry.
func (d LabelDetails) Label() Label {
	return Label{ID: strconv.FormatInt(d.ID, 10), Name: d.Name}
}

// ParseLabelID trims s and checks that it is a positive decimal id.
func ParseLabelID(s string) (string, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("label id must be a positive number, got %q", s)
	}
	return strconv.FormatInt(n, 10), nil
}

// ContainsLabel reports whether labels holds an entry with id.
func ContainsLabel(labels []Label, id string) bool {
	for _, l := range labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

// AppendLabel appends l unless an entry with the same id is present.
func AppendLabel(labels []Label, l Label) []Label {
	if ContainsLabel(labels, l.ID) {
		return labels
	}
	return append(labels, l)
}
