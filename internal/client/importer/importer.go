// Package importer turns a CSV export (from Daybook or elsewhere) into new
// journal entries.
//
// The file must have a header row. Recognized columns are title, data (a
// plain text body) and createdAt or date. Rows with an unparseable date or
// with neither title nor data are skipped and reported, never fatal.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

const (
	ReasonInvalidDate = "invalid_date"
	ReasonEmpty       = "empty"
)

// Skip is a row that was not imported. Row is the zero-based index among
// data rows (the header is not counted).
type Skip struct {
	Row    int
	Reason string
}

// Result is what Parse made of a CSV file.
type Result struct {
	Rows    int
	Entries []*models.Entry
	Skipped []Skip
}

var ErrNoHeader = errors.New("csv has no header row")

// localZone decides the day bucket of imported entries and the zone of
// dates without an offset.
var localZone = time.Local

func parseDate(raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(raw, localZone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(localZone), nil
}

// Parse reads every row of r. Blank lines are ignored.
func Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csv parse error: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	res := &Result{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv parse error: %w", err)
		}
		if blankRecord(rec) {
			continue
		}

		idx := res.Rows
		res.Rows++

		title := get(rec, "title")
		data := get(rec, "data")

		createdAt, ok := firstDate(get(rec, "createdat"), get(rec, "date"))
		if !ok {
			res.Skipped = append(res.Skipped, Skip{Row: idx, Reason: ReasonInvalidDate})
			continue
		}
		if title == "" && data == "" {
			res.Skipped = append(res.Skipped, Skip{Row: idx, Reason: ReasonEmpty})
			continue
		}
		if title == "" {
			title = common.UntitledEntry
		}

		body := ""
		if data != "" {
			body = richtext.PlainTextToHTML(data)
		}

		res.Entries = append(res.Entries, &models.Entry{
			DateKey: timex.DateKey(createdAt),
			Fields: models.Fields{
				Title:     title,
				Body:      body,
				CreatedAt: createdAt,
			},
			UpdatedAt: createdAt,
		})
	}
	return res, nil
}

func firstDate(candidates ...string) (time.Time, bool) {
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		if t, err := parseDate(raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// SkipCounts tallies skipped rows by reason.
func (r *Result) SkipCounts() map[string]int {
	out := make(map[string]int, 2)
	for _, s := range r.Skipped {
		out[s.Reason]++
	}
	return out
}
