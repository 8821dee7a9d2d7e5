package services

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/importer"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/netx"
	"github.com/dmitrijs2005/daybook/internal/tags"
)

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Rows     int
	Imported int
	Skipped  []importer.Skip
}

// LibraryService covers the operations that act on many entries at once:
// CSV import and export, tag renames, and groups.
type LibraryService interface {
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
	ExportCSV(ctx context.Context, w io.Writer) (*models.Export, int64, error)
	RenameTag(ctx context.Context, from, to string) (int, error)

	Groups(ctx context.Context) ([]*models.Group, error)
	SaveGroup(ctx context.Context, id, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	AddToGroup(ctx context.Context, groupID string, entryIDs ...string) (*models.Group, error)
	RemoveFromGroup(ctx context.Context, groupID string, entryIDs ...string) (*models.Group, error)
}

type libraryService struct {
	client client.Client
}

// NewLibraryService constructs a LibraryService over c.
func NewLibraryService(c client.Client) LibraryService {
	return &libraryService{client: c}
}

// Import requests are cut by row count and by the approximate size of the
// text they carry, so one large CSV never becomes one oversized message.
const (
	importBatchRows  = 500
	importBatchBytes = 2 << 20
)

func importBatches(entries []*models.Entry) [][]*models.Entry {
	var (
		out   [][]*models.Entry
		start int
		size  int
	)
	for i, e := range entries {
		n := len(e.Title) + len(e.Body)
		if i > start && (i-start == importBatchRows || size+n > importBatchBytes) {
			out = append(out, entries[start:i])
			start, size = i, 0
		}
		size += n
	}
	if start < len(entries) {
		out = append(out, entries[start:])
	}
	return out
}

// ImportCSV parses r and sends the valid rows in batches. Skipped rows are
// reported, not fatal. Each batch is committed on its own; when one fails the
// error says how many entries were already imported.
func (s *libraryService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parsed, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Rows: parsed.Rows, Skipped: parsed.Skipped}
	for _, batch := range importBatches(parsed.Entries) {
		n, err := s.client.ImportEntries(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("import error after %d entries: %w", res.Imported, err)
		}
		res.Imported += n
	}
	return res, nil
}

// ExportCSV asks the server for a fresh export and streams it into w.
func (s *libraryService) ExportCSV(ctx context.Context, w io.Writer) (*models.Export, int64, error) {
	exp, err := s.client.Export(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("export error: %w", err)
	}

	n, err := netx.DownloadPresignedURL(ctx, exp.URL, w)
	if err != nil {
		return exp, n, fmt.Errorf("download error: %w", err)
	}
	return exp, n, nil
}

func (s *libraryService) RenameTag(ctx context.Context, from, to string) (int, error) {
	from, to = tags.Normalize(from), tags.Normalize(to)
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: tag names must not be empty", common.ErrorValidation)
	}
	return s.client.RenameTag(ctx, from, to)
}

func (s *libraryService) Groups(ctx context.Context) ([]*models.Group, error) {
	return s.client.ListGroups(ctx)
}

func (s *libraryService) SaveGroup(ctx context.Context, id, name string) (*models.Group, error) {
	return s.client.SaveGroup(ctx, id, name)
}

func (s *libraryService) DeleteGroup(ctx context.Context, id string) error {
	return s.client.DeleteGroup(ctx, id)
}

func (s *libraryService) findGroup(ctx context.Context, id string) (*models.Group, error) {
	groups, err := s.client.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *libraryService) AddToGroup(ctx context.Context, groupID string, entryIDs ...string) (*models.Group, error) {
	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := slices.Clone(g.EntryIDs)
	for _, id := range entryIDs {
		if id != "" && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	return s.client.SetGroupMembers(ctx, groupID, members)
}

func (s *libraryService) RemoveFromGroup(ctx context.Context, groupID string, entryIDs ...string) (*models.Group, error) {
	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := slices.DeleteFunc(slices.Clone(g.EntryIDs), func(id string) bool {
		return slices.Contains(entryIDs, id)
	})
	return s.client.SetGroupMembers(ctx, groupID, members)
}
