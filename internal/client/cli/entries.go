package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dmitrijs2005/daybook/internal/client/confirm"
	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

var (
	errListFirst = errors.New("no list yet, run 'list' first")
	errEditing   = errors.New("an entry is being edited, use save, back or discard first")
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "3:04pm", "15:04", "15:04:05"}

// parseDay turns a user-typed day into a date key. Besides YYYY-MM-DD it
// accepts today, yesterday, tomorrow and anything dateparse understands.
func parseDay(arg string, now time.Time) (string, error) {
	switch strings.ToLower(arg) {
	case "", "today":
		return timex.DateKey(now), nil
	case "yesterday":
		return timex.DateKey(now.AddDate(0, 0, -1)), nil
	case "tomorrow":
		return timex.DateKey(now.AddDate(0, 0, 1)), nil
	}
	if _, err := timex.ParseDateKey(arg, now.Location()); err == nil {
		return arg, nil
	}
	t, err := dateparse.ParseIn(arg, now.Location())
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", common.ErrorValidation, arg)
	}
	return timex.DateKey(t.In(now.Location())), nil
}

// parseClock reads a time of day in loc.
func parseClock(arg string, loc *time.Location) (time.Time, error) {
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, arg, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q", common.ErrorValidation, arg)
}

// List fetches one day bucket, prints it through the tag filter and follows
// its changes.
func (a *App) List(ctx context.Context, args []string) error {
	key, err := parseDay(strings.Join(args, " "), a.now())
	if err != nil {
		return err
	}

	entries, err := a.entries.ListEntries(ctx, key)
	if err != nil {
		return err
	}

	prev, _ := a.listing()
	a.setListing(key, entries)
	if prev != key {
		a.watch(ctx, key)
	}

	printRows(a.out, key, journal.Rows(entries, &a.filter), &a.filter)
	return nil
}

// Days prints the days that have an entry matching the tag filter, newest
// first.
func (a *App) Days(ctx context.Context) error {
	all, err := a.entries.ListEntries(ctx, "")
	if err != nil {
		return err
	}

	marked := journal.DaysWithEntries(all, &a.filter)
	days := make([]string, 0, len(marked))
	for d := range marked {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	printDays(a.out, days)
	return nil
}

// findListed resolves a row number of the last list, or an entry id or id
// prefix.
func (a *App) findListed(ref string) (*models.Entry, string, error) {
	day, listed := a.listing()
	if day == "" {
		return nil, "", errListFirst
	}

	if n, err := strconv.Atoi(ref); err == nil {
		rows := journal.Rows(listed, &a.filter)
		if n < 1 || n > len(rows) {
			return nil, "", fmt.Errorf("%w: no row %d", common.ErrorNotFound, n)
		}
		ref = rows[n-1].ID
	}

	var found *models.Entry
	for _, e := range listed {
		if e.ID == ref {
			return e, day, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			if found != nil {
				return nil, "", fmt.Errorf("%w: %q matches more than one entry", common.ErrorValidation, ref)
			}
			found = e
		}
	}
	if found == nil {
		return nil, "", fmt.Errorf("%w: entry %q", common.ErrorNotFound, ref)
	}
	return found, day, nil
}

func (a *App) requireNotEditing() error {
	if a.editor.Mode() == journal.ModeEditing {
		return errEditing
	}
	return nil
}

// Open selects an entry of the last list in read mode and shows it.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: open <n|id>")
		return nil
	}
	if err := a.requireNotEditing(); err != nil {
		return err
	}

	entry, day, err := a.findListed(args[0])
	if err != nil {
		return err
	}
	if err := a.editor.Open(entry, day); err != nil {
		return err
	}
	return a.Show(ctx)
}

// Show prints the open entry: the read view, or the buffer while editing.
func (a *App) Show(_ context.Context) error {
	entry := a.editor.Entry()
	if entry == nil {
		return journal.ErrNoEntry
	}
	printEntry(a.out, a.editor.DateKey(), a.editor.Mode(), a.editor.Fields(), entry.HasDraft(), a.editor.IsDirty())
	if err := a.editor.LastFlushError(); err != nil {
		printlnFn(errorColor.Sprint("Autosave failed: ", err))
	}
	return nil
}

// New creates an empty entry in the given day (the listed day, else today)
// and starts editing it.
func (a *App) New(ctx context.Context, args []string) error {
	if err := a.requireNotEditing(); err != nil {
		return err
	}

	day, _ := a.listing()
	if len(args) > 0 || day == "" {
		var err error
		if day, err = parseDay(strings.Join(args, " "), a.now()); err != nil {
			return err
		}
	}

	created, err := a.editor.NewEntry(ctx, day)
	if err != nil {
		return err
	}

	prev, _ := a.listing()
	if prev != day {
		a.setListing(day, nil)
		a.watch(ctx, day)
	}

	printlnFn(fmt.Sprintf("New entry for %s at %s. Use 'set' to write, 'save' when done.",
		day, timex.FormatTime(created.CreatedAt.Local())))
	return nil
}

// Edit switches the open entry to editing.
func (a *App) Edit(ctx context.Context) error {
	if err := a.editor.StartEditing(); err != nil {
		return err
	}
	return a.Show(ctx)
}

func splitTags(args []string) []string {
	return strings.FieldsFunc(strings.Join(args, " "), func(r rune) bool { return r == ',' })
}

// Set changes one field of the edit buffer. Every change re-arms the
// autosave.
func (a *App) Set(_ context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: set <title|body|tags|addtag|rmtag|mood|time> [value]")
		return nil
	}
	field, rest := args[0], args[1:]
	value := strings.Join(rest, " ")

	switch field {
	case "title":
		return a.editor.SetTitle(value)

	case "body":
		if value == "" {
			text, err := getMultiline(a.reader, "Enter text", a.out)
			if err != nil {
				return err
			}
			value = text
		}
		return a.editor.SetBody(richtext.PlainTextToHTML(value))

	case "tags":
		return a.editor.SetTags(splitTags(rest))

	case "addtag":
		return a.editor.AddTag(value)

	case "rmtag":
		return a.editor.RemoveTag(value)

	case "mood":
		if value == "none" {
			value = ""
		}
		return a.editor.SetMood(value)

	case "time":
		clock, err := parseClock(value, a.now().Location())
		if err != nil {
			return err
		}
		return a.editor.SetTime(clock)

	default:
		return fmt.Errorf("%w: unknown field %q", common.ErrorValidation, field)
	}
}

// Save finalizes the buffer into the entry.
func (a *App) Save(ctx context.Context) error {
	saved, err := a.editor.Save(ctx)
	if err != nil {
		return err
	}
	title := saved.Title
	if title == "" {
		title = common.UntitledEntry
	}
	printlnFn("Saved", title)
	return nil
}

// Back leaves the open entry. Unsaved work becomes the shared draft.
func (a *App) Back(ctx context.Context) error {
	editing := a.editor.Mode() == journal.ModeEditing
	if err := a.editor.Back(ctx); err != nil {
		return err
	}
	if editing {
		printlnFn("Left entry")
	}
	return nil
}

func (a *App) ask(p confirm.Prompt) (bool, error) {
	return getConfirmation(a.reader, p.Title+"\n"+p.Body, a.out)
}

var (
	discardDialog = confirm.New(
		confirm.Prompt{Title: "Discard changes?", Body: "Your edits in this session will be lost."},
		confirm.Prompt{Title: "Really discard?", Body: "This cannot be undone."},
	)
	deleteDialog = confirm.New(
		confirm.Prompt{Title: "Delete entry?", Body: "The entry and its draft will be removed."},
		confirm.Prompt{Title: "Really delete?", Body: "This cannot be undone."},
	)
)

// Discard drops this session's edits after a two-step confirmation. When
// there is nothing to lose it does not ask.
func (a *App) Discard(ctx context.Context) error {
	if a.editor.Mode() != journal.ModeEditing {
		return journal.ErrNotEditing
	}

	if a.editor.NeedsDiscardPrompt() {
		ok, err := discardDialog.Run(a.ask)
		if err != nil || !ok {
			return err
		}
	}

	if err := a.editor.Discard(ctx); err != nil {
		return err
	}
	printlnFn("Discarded")
	return nil
}

// Delete removes the open entry after a two-step confirmation.
func (a *App) Delete(ctx context.Context) error {
	if a.editor.Entry() == nil {
		return journal.ErrNoEntry
	}

	ok, err := deleteDialog.Run(a.ask)
	if err != nil || !ok {
		return err
	}

	if err := a.editor.Delete(ctx); err != nil {
		return err
	}
	printlnFn("Deleted")
	return nil
}

// Tags prints every tag in use; active filter tags are starred.
func (a *App) Tags(ctx context.Context) error {
	all, err := a.entries.ListEntries(ctx, "")
	if err != nil {
		return err
	}
	printTags(a.out, journal.AvailableTags(all), &a.filter)
	return nil
}

// Filter toggles tags of the list filter; "filter clear" empties it. The
// current list is printed again.
func (a *App) Filter(_ context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: filter <tag>... | filter clear")
		return nil
	}

	if len(args) == 1 && args[0] == "clear" {
		a.filter.Clear()
	} else {
		for _, t := range args {
			a.filter.Toggle(t)
		}
	}

	day, listed := a.listing()
	if day != "" {
		printRows(a.out, day, journal.Rows(listed, &a.filter), &a.filter)
	}
	return nil
}

// Dashboard prints totals over all entries.
func (a *App) Dashboard(ctx context.Context) error {
	all, err := a.entries.ListEntries(ctx, "")
	if err != nil {
		return err
	}
	groups, err := a.libraryService.Groups(ctx)
	if err != nil {
		return err
	}
	printDashboard(a.out, journal.BuildDashboard(all, groups, a.now(), 5))
	return nil
}
