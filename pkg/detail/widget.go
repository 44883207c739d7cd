// Package detail composes derived streams into the descriptors the
// dashboard displays: sections of keyval, table, gallery, map and video
// widgets. Field names and the cell/formatter vocabulary are the wire
// contract with the dashboard.
package detail

import (
	"github.com/pkg/errors"
)

var ErrDuplicateWidgetTitle = errors.New("widget titles within a section must be unique")

// Formatter hints for keyval items and table columns.
const (
	FormatterFilesize  = "filesize"
	FormatterDatetime  = "datetime"
	FormatterTimedelta = "timedelta"
	FormatterRellink   = "rellink"
)

// Link is a relative reference with a display title.
type Link struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// Cell is the one-of value vocabulary shared by keyval items and table
// rows. Timestamps and timedeltas are nanoseconds.
type Cell struct {
	Text      string `json:"text,omitempty"`
	UInt64    *uint64 `json:"uint64,omitempty"`
	Timestamp *int64  `json:"timestamp,omitempty"`
	Timedelta *int64  `json:"timedelta,omitempty"`
	Link      *Link   `json:"link,omitempty"`
}

// KeyvalItem is one label/value pair with an optional formatter hint.
type KeyvalItem struct {
	Title     string `json:"title"`
	Formatter string `json:"formatter,omitempty"`
	List      bool   `json:"list"`
	Cell      Cell   `json:"cell"`
}

type Keyval struct {
	Items []KeyvalItem `json:"items"`
}

// Column describes one typed table column.
type Column struct {
	Title     string `json:"title"`
	Formatter string `json:"formatter,omitempty"`
	Align     string `json:"align,omitempty"`
}

type Row struct {
	ID    int    `json:"id"`
	Cells []Cell `json:"cells"`
}

type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type Image struct {
	Src string `json:"src"`
}

type Gallery struct {
	Images []Image `json:"images"`
}

type Video struct {
	Src string `json:"src"`
}

// Widget is a one-of descriptor; exactly one payload field is set.
type Widget struct {
	Title      string   `json:"title,omitempty"`
	Keyval     *Keyval  `json:"keyval,omitempty"`
	Table      *Table   `json:"table,omitempty"`
	Image      *Image   `json:"image,omitempty"`
	Gallery    *Gallery `json:"gallery,omitempty"`
	Video      *Video   `json:"video,omitempty"`
	MapPartial string   `json:"map_partial,omitempty"`
}

// Section is a title plus an ordered widget list. Assemblers never emit an
// empty section; absence of output means "omit this section".
type Section struct {
	Title   string   `json:"title"`
	Widgets []Widget `json:"widgets"`
}

func uniqueWidgetTitles(widgets []Widget) error {
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if _, ok := seen[w.Title]; ok {
			return errors.Wrap(ErrDuplicateWidgetTitle, w.Title)
		}
		seen[w.Title] = struct{}{}
	}

	return nil
}

func uint64Cell(v uint64) Cell {
	return Cell{UInt64: &v}
}

func timestampCell(ns int64) Cell {
	return Cell{Timestamp: &ns}
}

func timedeltaCell(ns int64) Cell {
	return Cell{Timedelta: &ns}
}
