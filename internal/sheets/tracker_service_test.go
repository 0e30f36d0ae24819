package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"drivewatch/internal/extract"
)

// fakeSheetsAPI serves just enough of the Sheets v4 surface for the Tracker:
// spreadsheet metadata, value reads, the AddSheet batch update, the header
// write, and appends.
type fakeSheetsAPI struct {
	mu         sync.Mutex
	worksheets []string
	seedRows   [][]interface{}

	batchUpdates  []string
	headerWrites  []string
	appendBodies  []string
	appendTargets []string
}

func (f *fakeSheetsAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		body, _ := io.ReadAll(r.Body)
		path := r.URL.Path

		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
			f.batchUpdates = append(f.batchUpdates, string(body))
			io.WriteString(w, `{}`)

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
			f.appendBodies = append(f.appendBodies, string(body))
			f.appendTargets = append(f.appendTargets, path)
			io.WriteString(w, `{}`)

		case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
			f.headerWrites = append(f.headerWrites, string(body))
			io.WriteString(w, `{}`)

		case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
			resp := map[string]interface{}{"values": f.seedRows}
			json.NewEncoder(w).Encode(resp)

		case r.Method == http.MethodGet && strings.Contains(path, "/v4/spreadsheets/"):
			var sheetList []map[string]interface{}
			for _, title := range f.worksheets {
				sheetList = append(sheetList, map[string]interface{}{
					"properties": map[string]interface{}{"title": title},
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"sheets": sheetList})

		default:
			http.Error(w, "unexpected call: "+r.Method+" "+path, http.StatusBadRequest)
		}
	})
}

func newTestTracker(t *testing.T, api *fakeSheetsAPI) *Tracker {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	return &Tracker{
		svc:           svc,
		spreadsheetID: "sheet123",
		worksheet:     "invoice",
		processed:     make(map[string]bool),
	}
}

func TestInitCreatesMissingWorksheet(t *testing.T) {
	api := &fakeSheetsAPI{worksheets: []string{"Sheet1"}}
	tracker := newTestTracker(t, api)

	require.NoError(t, tracker.Init(context.Background()))

	require.Len(t, api.batchUpdates, 1)
	assert.Contains(t, api.batchUpdates[0], `"addSheet"`)
	assert.Contains(t, api.batchUpdates[0], `"title":"invoice"`)

	require.Len(t, api.headerWrites, 1)
	assert.Contains(t, api.headerWrites[0], "File ID")
	assert.Contains(t, api.headerWrites[0], "Tracking Number")
	assert.Contains(t, api.headerWrites[0], "Boxes")
}

func TestInitSeedsFromExistingWorksheet(t *testing.T) {
	api := &fakeSheetsAPI{
		worksheets: []string{"Sheet1", "invoice"},
		seedRows: [][]interface{}{
			{"file1"},
			{"file1"},
			{"file2"},
		},
	}
	tracker := newTestTracker(t, api)

	require.NoError(t, tracker.Init(context.Background()))

	assert.Empty(t, api.batchUpdates, "existing worksheet must not be recreated")
	assert.Empty(t, api.headerWrites)
	assert.True(t, tracker.IsProcessed("file1"))
	assert.True(t, tracker.IsProcessed("file2"))
	assert.False(t, tracker.IsProcessed("file3"))
}

func TestAppendWritesRowsAndMarksProcessed(t *testing.T) {
	api := &fakeSheetsAPI{worksheets: []string{"invoice"}}
	tracker := newTestTracker(t, api)

	rec := Record{
		FileID:         "file9",
		FileName:       "OCS_0812.xlsx",
		FileType:       extract.TypeOCS,
		TrackingNumber: "1Z999AA10123456784",
		ASINs:          []string{"B01ABCD123"},
		BoxCount:       2,
		HasBoxCount:    true,
	}
	require.NoError(t, tracker.Append(context.Background(), rec))

	require.Len(t, api.appendBodies, 1)
	assert.Contains(t, api.appendTargets[0], "invoice")
	assert.Contains(t, api.appendBodies[0], "1Z999AA10123456784")
	assert.Contains(t, api.appendBodies[0], "B01ABCD123")
	assert.Contains(t, api.appendBodies[0], `"2"`)
	assert.True(t, tracker.IsProcessed("file9"))
}

func TestAppendFailureDoesNotMarkProcessed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	tracker := &Tracker{
		svc:           svc,
		spreadsheetID: "sheet123",
		worksheet:     "invoice",
		processed:     make(map[string]bool),
	}

	rec := Record{FileID: "file9", FileName: "OCS_0812.xlsx", FileType: extract.TypeOCS, TrackingNumber: "T1"}
	assert.Error(t, tracker.Append(context.Background(), rec))
	assert.False(t, tracker.IsProcessed("file9"))
}
