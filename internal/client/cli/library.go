package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// RenameTag renames a tag in every entry, draft and autosave.
func (a *App) RenameTag(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printlnFn("Usage: rename-tag <from> <to>")
		return nil
	}

	n, err := a.libraryService.RenameTag(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.filter.Rename(args[0], args[1])
	printlnFn(fmt.Sprintf("Renamed #%s to #%s in %d entries", args[0], args[1], n))
	return nil
}

// resolveGroup finds a group by row number, code or id.
func resolveGroup(groups []*models.Group, ref string) (*models.Group, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(groups) {
		return groups[n-1], nil
	}
	for _, g := range groups {
		if g.ID == ref || strings.EqualFold(g.Code, ref) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: group %q", common.ErrorNotFound, ref)
}

const groupsUsage = "Usage: groups [add <name> | rename <g> <name> | rm <g> | put <g> | pull <g>]"

// Groups lists groups or changes one. put and pull act on the open entry.
func (a *App) Groups(ctx context.Context, args []string) error {
	groups, err := a.libraryService.Groups(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "list" {
		printGroups(a.out, groups)
		return nil
	}

	sub, rest := args[0], args[1:]
	if sub == "add" {
		if len(rest) == 0 {
			printlnFn(groupsUsage)
			return nil
		}
		g, err := a.libraryService.SaveGroup(ctx, "", strings.Join(rest, " "))
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("Created group %s (%s)", g.Name, g.Code))
		return nil
	}

	if len(rest) == 0 {
		printlnFn(groupsUsage)
		return nil
	}
	g, err := resolveGroup(groups, rest[0])
	if err != nil {
		return err
	}

	switch sub {
	case "rename":
		if len(rest) < 2 {
			printlnFn(groupsUsage)
			return nil
		}
		if _, err := a.libraryService.SaveGroup(ctx, g.ID, strings.Join(rest[1:], " ")); err != nil {
			return err
		}
		printlnFn("Group renamed")

	case "rm":
		ok, err := getConfirmation(a.reader, fmt.Sprintf("Delete group %s?", g.Name), a.out)
		if err != nil || !ok {
			return err
		}
		if err := a.libraryService.DeleteGroup(ctx, g.ID); err != nil {
			return err
		}
		printlnFn("Group deleted")

	case "put", "pull":
		entry := a.editor.Entry()
		if entry == nil {
			return journal.ErrNoEntry
		}
		var updated *models.Group
		if sub == "put" {
			updated, err = a.libraryService.AddToGroup(ctx, g.ID, entry.ID)
		} else {
			updated, err = a.libraryService.RemoveFromGroup(ctx, g.ID, entry.ID)
		}
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("Group %s has %d entries", updated.Name, len(updated.EntryIDs)))

	default:
		printlnFn(groupsUsage)
	}
	return nil
}

// Import reads a CSV file and creates one entry per valid row.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: import <file.csv>")
		return nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.libraryService.ImportCSV(ctx, f)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Imported %d of %d rows", res.Imported, res.Rows))
	if len(res.Skipped) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, s := range res.Skipped {
		counts[s.Reason]++
	}
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		printlnFn(fmt.Sprintf("  skipped %d: %s", counts[r], r))
	}
	return nil
}

// Export writes all entries as CSV to the given file, or to
// daybook-YYYY-MM-DD.csv in the working directory.
func (a *App) Export(ctx context.Context, args []string) error {
	path := fmt.Sprintf("daybook-%s.csv", timex.DateKey(a.now()))
	if len(args) > 0 {
		path = args[0]
	}

	path, err := filex.EnsureParentDir(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	exp, n, err := a.libraryService.ExportCSV(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	printlnFn(fmt.Sprintf("Exported %d entries to %s (%d bytes)", exp.Count, path, n))
	return nil
}
