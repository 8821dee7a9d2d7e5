package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/timex"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

var (
	titleColor = color.New(color.Bold, color.Underline)
	faintColor = color.New(color.Faint)
	draftColor = color.New(color.FgHiYellow, color.Italic)
	tagColor   = color.New(color.FgCyan)
)

func printTitle(w io.Writer, title string) {
	_, _ = titleColor.Fprintln(w, title)
}

func printTitleWithCount(w io.Writer, title string, count int, one, many string) {
	_, _ = titleColor.Fprint(w, title)
	if count == 1 {
		_, _ = faintColor.Fprintf(w, " - 1 %s\n", one)
		return
	}
	_, _ = faintColor.Fprintf(w, " - %d %s\n", count, many)
}

func moodLabel(m models.Mood, ok bool) string {
	if !ok {
		return ""
	}
	return m.Emoji + " " + m.Label
}

func hashTags(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return "#" + strings.Join(list, " #")
}

// printRows prints the entry list of one day. Row numbers are what "open"
// takes.
func printRows(w io.Writer, dateKey string, rows []journal.Row, filter *journal.TagFilter) {
	printTitleWithCount(w, dateKey, len(rows), "entry", "entries")
	if !filter.IsEmpty() {
		_, _ = faintColor.Fprintf(w, "filter: %s\n", hashTags(filter.Active()))
	}
	if len(rows) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprint(w, " none\n\n")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true

	for i, r := range rows {
		title := r.Title
		if r.HasDraft {
			title = draftColor.Sprint(title + " (draft)")
		}
		tbl.AddRow(
			faintColor.Sprintf("%d", i+1),
			r.TimeLabel,
			title,
			moodLabel(r.Mood, r.HasMood),
			tagColor.Sprint(hashTags(r.Tags)),
		)
		if r.Preview != "" {
			tbl.AddRow("", "", faintColor.Sprint(r.Preview), "", "")
		}
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}

// printEntry prints the fields shown by the editor: the read view in read
// mode, the edit buffer while editing.
func printEntry(w io.Writer, dateKey string, mode journal.Mode, f models.Fields, hasDraft, dirty bool) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		title = common.UntitledEntry
	}
	printTitle(w, title)

	status := mode.String()
	if hasDraft {
		status += ", draft"
	}
	if dirty {
		status += ", unsaved changes"
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 72
	tbl.Wrap = true
	tbl.AddRow("date:", dateKey+" "+timex.FormatTime(f.CreatedAt.Local()))
	mood, ok := models.LookupMood(f.Mood)
	if ok {
		tbl.AddRow("mood:", moodLabel(mood, ok))
	}
	if len(f.Tags) > 0 {
		tbl.AddRow("tags:", tagColor.Sprint(hashTags(f.Tags)))
	}
	tbl.AddRow("status:", faintColor.Sprint(status))
	_, _ = fmt.Fprintln(w, tbl)

	if text := richtext.ToText(f.Body); text != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, text)
	}
	_, _ = fmt.Fprintln(w)
}

func printDashboard(w io.Writer, d journal.Dashboard) {
	printTitle(w, "Dashboard")

	tbl := uitable.New()
	tbl.AddRow("entries:", d.Total)
	tbl.AddRow("with drafts:", d.WithDrafts)
	tbl.AddRow("today:", d.Today)
	_, _ = fmt.Fprintln(w, tbl)

	_, _ = fmt.Fprintln(w)
	printTitle(w, "Moods")
	moods := uitable.New()
	for _, m := range d.Moods {
		moods.AddRow(moodLabel(m.Mood, true), m.Count, strings.Repeat("█", m.Count))
	}
	moods.AddRow("no mood", d.NoMood, "")
	_, _ = fmt.Fprintln(w, moods)

	if len(d.TopTags) > 0 {
		_, _ = fmt.Fprintln(w)
		printTitle(w, "Top tags")
		tt := uitable.New()
		for _, t := range d.TopTags {
			tt.AddRow(tagColor.Sprint("#"+t.Tag), t.Count)
		}
		_, _ = fmt.Fprintln(w, tt)
	}

	if len(d.Groups) > 0 {
		_, _ = fmt.Fprintln(w)
		printTitle(w, "Groups")
		gt := uitable.New()
		for _, g := range d.Groups {
			gt.AddRow(g.Code, g.Name, g.Members)
		}
		_, _ = fmt.Fprintln(w, gt)
	}
	_, _ = fmt.Fprintln(w)
}

func printTags(w io.Writer, all []string, filter *journal.TagFilter) {
	printTitle(w, "Tags")
	if len(all) == 0 {
		_, _ = faintColor.Fprintln(w, " none")
		return
	}
	active := filter.Active()
	tbl := uitable.New()
	for _, t := range all {
		mark := ""
		for _, a := range active {
			if strings.EqualFold(a, t) {
				mark = "*"
				break
			}
		}
		tbl.AddRow(mark, tagColor.Sprint("#"+t))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printGroups(w io.Writer, groups []*models.Group) {
	printTitleWithCount(w, "Groups", len(groups), "group", "groups")
	if len(groups) == 0 {
		return
	}
	tbl := uitable.New()
	tbl.AddRow("#", "CODE", "NAME", "ENTRIES")
	for i, g := range groups {
		tbl.AddRow(i+1, g.Code, g.Name, len(g.EntryIDs))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printProfile(w io.Writer, p *models.Profile) {
	printTitle(w, p.Initials())
	tbl := uitable.New()
	tbl.AddRow("email:", p.Email)
	tbl.AddRow("name:", p.DisplayName)
	tbl.AddRow("locale:", p.Locale)
	_, _ = fmt.Fprintln(w, tbl)
}

func printDays(w io.Writer, days []string) {
	printTitleWithCount(w, "Days", len(days), "day", "days")
	for _, d := range days {
		_, _ = fmt.Fprintln(w, " "+d)
	}
}
