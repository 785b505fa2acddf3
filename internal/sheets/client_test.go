package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type request struct {
	method string
	path   string
	query  map[string]string
	body   map[string]interface{}
}

type sheetsServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []request
	values   [][]interface{}
	failing  string
}

func newSheetsServer(t *testing.T) *sheetsServer {
	s := &sheetsServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *sheetsServer) handle(w http.ResponseWriter, rq *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := request{method: rq.Method, path: rq.URL.Path, query: map[string]string{}}
	for k := range rq.URL.Query() {
		r.query[k] = rq.URL.Query().Get(k)
	}
	if b, _ := io.ReadAll(rq.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &r.body)
	}
	s.requests = append(s.requests, r)

	if s.failing != "" && strings.HasSuffix(r.path, s.failing) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.path, ":clear"):
		fmt.Fprint(w, `{"spreadsheetId":"sid","clearedRange":"Latest!A1:Z1000"}`)
	case strings.HasSuffix(r.path, ":append"):
		fmt.Fprint(w, `{"spreadsheetId":"sid","updates":{"updatedRows":2,"updatedCells":22}}`)
	case rq.Method == http.MethodPut:
		fmt.Fprint(w, `{"spreadsheetId":"sid","updatedRows":4,"updatedCells":72}`)
	default:
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": "Log!A1", "values": s.values})
	}
}

func newTestClient(t *testing.T, srv *sheetsServer) *Client {
	t.Helper()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"})
	client, err := NewClient(context.Background(), ts,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestClientOperations(t *testing.T) {
	srv := newSheetsServer(t)
	client := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, client.ClearRange(ctx, "sid", "Latest!A1:Z"))

	cells, err := client.UpdateRange(ctx, "sid", "Latest!A1", [][]interface{}{{"a", "b"}}, UserEntered)
	require.NoError(t, err)
	require.Equal(t, int64(72), cells)

	rows, err := client.AppendRows(ctx, "sid", "Log!A1", [][]interface{}{{"x"}, {"y"}}, Raw)
	require.NoError(t, err)
	require.Equal(t, int64(2), rows)

	values, err := client.ReadRange(ctx, "sid", "Log!A1")
	require.NoError(t, err)
	require.Empty(t, values)

	require.Len(t, srv.requests, 4)

	cleared := srv.requests[0]
	require.Equal(t, http.MethodPost, cleared.method)
	require.Equal(t, "/v4/spreadsheets/sid/values/Latest!A1:Z:clear", cleared.path)

	update := srv.requests[1]
	require.Equal(t, http.MethodPut, update.method)
	require.Equal(t, "USER_ENTERED", update.query["valueInputOption"])
	require.Equal(t, []interface{}{[]interface{}{"a", "b"}}, update.body["values"])

	appended := srv.requests[2]
	require.Equal(t, "/v4/spreadsheets/sid/values/Log!A1:append", appended.path)
	require.Equal(t, "RAW", appended.query["valueInputOption"])
	require.Equal(t, "INSERT_ROWS", appended.query["insertDataOption"])

	require.Equal(t, http.MethodGet, srv.requests[3].method)
}

func TestWritersAgainstSheetsAPI(t *testing.T) {
	srv := newSheetsServer(t)
	client := newTestClient(t, srv)
	ctx := context.Background()
	table := sampleTable(t)

	require.NoError(t, NewLatestWriter(client, "sid", "Latest").Write(ctx, table, runTime))
	require.NoError(t, NewLogWriter(client, "sid", "Log").Write(ctx, table, runTime))

	require.Len(t, srv.requests, 4)
	appended := srv.requests[3]
	values, ok := appended.body["values"].([]interface{})
	require.True(t, ok)
	require.Len(t, values, 4, "empty log sheet gets the header block")
}

func TestWriterSurfacesAPIError(t *testing.T) {
	srv := newSheetsServer(t)
	srv.failing = ":clear"
	client := newTestClient(t, srv)

	err := NewLatestWriter(client, "sid", "Latest").Write(context.Background(), sampleTable(t), runTime)
	require.ErrorContains(t, err, "403")
	require.Len(t, srv.requests, 1)
}
