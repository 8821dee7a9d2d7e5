package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/daybook/internal/client/importer"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCSV_SendsValidRows(t *testing.T) {
	fc := &fakeClient{ImportRet: 1}
	svc := NewLibraryService(fc)

	csv := "title,data,date\nHello,world,2024-02-03T10:00:00Z\n,,2024-02-03\n"
	res, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, []importer.Skip{{Row: 1, Reason: importer.ReasonEmpty}}, res.Skipped)
	require.Len(t, fc.LastImport, 1)
	assert.Equal(t, "Hello", fc.LastImport[0].Title)
}

func TestImportCSV_NothingToSend(t *testing.T) {
	fc := &fakeClient{}
	svc := NewLibraryService(fc)

	res, err := svc.ImportCSV(context.Background(), strings.NewReader("title,data,date\nx,y,nope\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Nil(t, fc.LastImport)
}

func TestImportCSV_ServerErrorWrapped(t *testing.T) {
	fc := &fakeClient{ImportErr: common.ErrorValidation}
	svc := NewLibraryService(fc)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("title,date\nx,2024-01-01\n"))
	require.ErrorIs(t, err, common.ErrorValidation)
	require.ErrorContains(t, err, "import error")
}

func journalCSV(rows int) string {
	var b strings.Builder
	b.WriteString("title,data,date\n")
	for i := range rows {
		fmt.Fprintf(&b, "Day %d,walked the dog,2024-02-03\n", i)
	}
	return b.String()
}

func TestImportCSV_SendsBatches(t *testing.T) {
	fc := &fakeClient{ImportEcho: true}
	svc := NewLibraryService(fc)

	res, err := svc.ImportCSV(context.Background(), strings.NewReader(journalCSV(1201)))
	require.NoError(t, err)

	assert.Equal(t, 1201, res.Rows)
	assert.Equal(t, 1201, res.Imported)
	assert.Equal(t, []int{500, 500, 201}, fc.ImportBatches)
}

func TestImportCSV_FailedBatchReportsProgress(t *testing.T) {
	fc := &fakeClient{ImportEcho: true, ImportErr: common.ErrorInternal, ImportErrAfter: 1}
	svc := NewLibraryService(fc)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(journalCSV(1201)))
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.ErrorContains(t, err, "import error after 500 entries")
	assert.Equal(t, []int{500, 500}, fc.ImportBatches)
}

func TestImportBatches_SplitsLargeBodies(t *testing.T) {
	body := strings.Repeat("z", 600_000)
	var entries []*models.Entry
	for range 5 {
		entries = append(entries, &models.Entry{Fields: models.Fields{Body: body}})
	}

	var sizes []int
	for _, b := range importBatches(entries) {
		sizes = append(sizes, len(b))
	}
	assert.Equal(t, []int{3, 2}, sizes)

	assert.Empty(t, importBatches(nil))

	huge := []*models.Entry{{Fields: models.Fields{Body: strings.Repeat("z", 3<<20)}}}
	assert.Len(t, importBatches(huge), 1, "a single oversized row still goes out alone")
}

func TestExportCSV_DownloadsPresignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("title,data,date\n"))
	}))
	defer srv.Close()

	fc := &fakeClient{ExportRet: &models.Export{Key: "exports/u1/x.csv", URL: srv.URL, Count: 0}}
	svc := NewLibraryService(fc)

	var buf bytes.Buffer
	exp, n, err := svc.ExportCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "exports/u1/x.csv", exp.Key)
	assert.Equal(t, int64(len("title,data,date\n")), n)
	assert.Equal(t, "title,data,date\n", buf.String())
}

func TestExportCSV_ServerError(t *testing.T) {
	fc := &fakeClient{ExportErr: common.ErrorInternal}
	_, _, err := NewLibraryService(fc).ExportCSV(context.Background(), &bytes.Buffer{})
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRenameTag_NormalizesAndValidates(t *testing.T) {
	fc := &fakeClient{RenameRet: 3}
	svc := NewLibraryService(fc)

	n, err := svc.RenameTag(context.Background(), " #Work ", "job")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, [2]string{"Work", "job"}, fc.LastRename)

	_, err = svc.RenameTag(context.Background(), "#", "job")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestGroupMembership(t *testing.T) {
	fc := &fakeClient{GroupsRet: []*models.Group{{ID: "g1", EntryIDs: []string{"e1", "e2"}}}}
	svc := NewLibraryService(fc)
	ctx := context.Background()

	g, err := svc.AddToGroup(ctx, "g1", "e2", "e3", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "e3"}, g.EntryIDs)
	assert.Equal(t, []string{"e1", "e2"}, fc.GroupsRet[0].EntryIDs)

	g, err = svc.RemoveFromGroup(ctx, "g1", "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, g.EntryIDs)

	_, err = svc.AddToGroup(ctx, "missing", "e1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
