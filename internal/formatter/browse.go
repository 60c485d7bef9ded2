package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/curate/internal/models"
)

// PageSize is the number of releases on one browse page.
const PageSize = 100

// Sort keys accepted by [Sort].
const (
	SortDate   = "date"
	SortTitle  = "title"
	SortArtist = "artist"
	SortStatus = "status"
	SortTracks = "tracks"
	SortType   = "type"
	SortCatno  = "catno"
	SortLabel  = "label"
	SortYear   = "year"
)

// SortKeys lists every sort key in column order.
var SortKeys = []string{SortDate, SortTitle, SortArtist, SortStatus, SortTracks, SortType, SortCatno, SortLabel, SortYear}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultDirection is the direction a column sorts in when first selected:
// newest and longest first, everything else alphabetical.
func DefaultDirection(key string) Direction {
	switch key {
	case SortDate, SortTracks, SortYear:
		return Desc
	default:
		return Asc
	}
}

// ParseSortKey validates key; "" selects [SortDate].
func ParseSortKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return SortDate, nil
	}
	for _, k := range SortKeys {
		if k == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want one of %s)", key, strings.Join(SortKeys, ", "))
}

// Query selects one page of the cached releases.
type Query struct {
	Filter    string
	Sort      string
	Direction Direction
	Page      int
}

// Page is one page of browse results.
type Page struct {
	Items      []models.Release `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
}

// Info is the pager caption.
func (p Page) Info() string {
	if p.TotalPages > 1 {
		return fmt.Sprintf("Page %d of %d (%s releases)", p.Page, p.TotalPages, humanize.Comma(int64(p.Total)))
	}
	return fmt.Sprintf("%s releases found.", humanize.Comma(int64(p.Total)))
}

// Browse filters, sorts and paginates releases. The input slice is not modified.
func Browse(releases []models.Release, q Query) Page {
	items := Filter(releases, q.Filter)

	key := q.Sort
	if key == "" {
		key = SortDate
	}
	dir := q.Direction
	if dir == "" {
		dir = DefaultDirection(key)
	}
	Sort(items, key, dir)

	return Paginate(items, q.Page)
}

// Filter returns the releases whose title, artist names or first label contain
// query, case-insensitively. An empty query matches everything.
func Filter(releases []models.Release, query string) []models.Release {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Release, 0, len(releases))
	for _, r := range releases {
		if query == "" || matches(r, query) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.Release, query string) bool {
	return strings.Contains(strings.ToLower(r.Title), query) ||
		strings.Contains(artistKey(r), query) ||
		strings.Contains(strings.ToLower(r.PrimaryLabel().Name), query)
}

// Sort orders releases in place by key. Ties keep their input order.
func Sort(releases []models.Release, key string, dir Direction) {
	less := lessFunc(key)
	sort.SliceStable(releases, func(i, j int) bool {
		if dir == Desc {
			return less(releases[j], releases[i])
		}
		return less(releases[i], releases[j])
	})
}

func lessFunc(key string) func(a, b models.Release) bool {
	switch key {
	case SortDate:
		return func(a, b models.Release) bool { return releaseTime(a).Before(releaseTime(b)) }
	case SortStatus:
		return func(a, b models.Release) bool { return statusKey(a) < statusKey(b) }
	case SortArtist:
		return func(a, b models.Release) bool { return artistKey(a) < artistKey(b) }
	case SortTracks:
		return func(a, b models.Release) bool { return len(a.Tracklist) < len(b.Tracklist) }
	case SortLabel:
		return func(a, b models.Release) bool {
			return strings.ToLower(a.PrimaryLabel().Name) < strings.ToLower(b.PrimaryLabel().Name)
		}
	case SortCatno:
		return func(a, b models.Release) bool {
			return strings.ToLower(a.PrimaryLabel().Catno) < strings.ToLower(b.PrimaryLabel().Catno)
		}
	case SortType:
		return func(a, b models.Release) bool { return a.Type() < b.Type() }
	case SortYear:
		return func(a, b models.Release) bool { return a.Year < b.Year }
	default:
		return func(a, b models.Release) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	}
}

// statusKey sorts untriaged releases last.
func statusKey(r models.Release) string {
	if r.Status == "" {
		return "z"
	}
	return r.Status
}

func artistKey(r models.Release) string {
	names := make([]string, len(r.Artists))
	for i, a := range r.Artists {
		names[i] = a.Name
	}
	return strings.ToLower(strings.Join(names, " "))
}

// releaseTime parses the release date, falling back to January 1st of the year.
// Unknown months and days ("1997-00-00", "1997-03-00") collapse to the start of the year.
// Undated releases sort as the zero time.
func releaseTime(r models.Release) time.Time {
	s := r.Released
	if s == "" {
		if r.Year == 0 {
			return time.Time{}
		}
		s = fmt.Sprintf("%04d-01-01", r.Year)
	}

	parts := strings.Split(s, "-")
	if len(parts) == 3 && parts[2] == "00" {
		parts = []string{parts[0], "01", "01"}
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, strings.Join(parts, "-")); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Paginate returns page (1-based, clamped to the valid range) of items.
func Paginate(items []models.Release, page int) Page {
	total := len(items)
	pages := max((total+PageSize-1)/PageSize, 1)
	page = min(max(page, 1), pages)

	start := (page - 1) * PageSize
	end := min(start+PageSize, total)

	return Page{Items: items[start:end], Page: page, TotalPages: pages, Total: total}
}

// FormatDate renders a catalog date as "dd | mm | yy". A bare four-digit year is
// returned unchanged; a missing month or day reads as 01. An empty date gets the placeholder glyph.
func FormatDate(date string) string {
	if date == "" || date == "—" {
		return "—"
	}

	parts := strings.Split(date, "-")
	if len(parts) == 1 && len(parts[0]) == 4 {
		if _, err := strconv.Atoi(parts[0]); err == nil {
			return parts[0]
		}
	}

	year := parts[0]
	if len(year) > 2 {
		year = year[len(year)-2:]
	}
	month, day := "01", "01"
	if len(parts) > 1 && parts[1] != "" {
		month = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		day = parts[2]
	}
	return fmt.Sprintf("%s | %s | %s", day, month, year)
}

// ReleaseDate is the date string shown for r: its release date, else its year.
func ReleaseDate(r models.Release) string {
	if r.Released != "" {
		return r.Released
	}
	if r.Year != 0 {
		return strconv.Itoa(r.Year)
	}
	return ""
}

// Row is the display form of a release.
type Row struct {
	ID      int64    `json:"id"`
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Status  string   `json:"status"`
	Tracks  string   `json:"tracks"`
	Type    string   `json:"type"`
	Catno   string   `json:"catno"`
	Label   string   `json:"label"`
	URL     string   `json:"url"`
}

// NewRow formats r for display.
func NewRow(r models.Release) Row {
	label := r.PrimaryLabel()
	row := Row{
		ID:      r.ID,
		Date:    FormatDate(ReleaseDate(r)),
		Title:   r.Title,
		Artists: r.ArtistNames(),
		Status:  r.Status,
		Tracks:  "—",
		Type:    r.Type(),
		Catno:   "—",
		Label:   "N/A",
		URL:     r.WebURL(),
	}
	if len(row.Artists) == 0 {
		row.Artists = []string{"Various Artists"}
	}
	if n := len(r.Tracklist); n > 0 {
		row.Tracks = strconv.Itoa(n)
	}
	if label.Catno != "" {
		row.Catno = label.Catno
	}
	if label.Name != "" {
		row.Label = models.CleanName(label.Name)
	}
	return row
}

// String renders the row as one line of plain text.
func (r Row) String() string {
	status := "•"
	if r.Status == models.StatusToListen {
		status = "/"
	}
	return fmt.Sprintf("%s  %-12s %s %s - %s [%s, %s tracks] %s %s",
		status, r.Date, strconv.FormatInt(r.ID, 10), strings.Join(r.Artists, ", "), r.Title, r.Type, r.Tracks, r.Catno, r.Label)
}
