package recordstore

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

func doRequest(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) (int, recordapi.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out recordapi.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestServer_Guard(t *testing.T) {
	srv := NewServer(newTestStore(t), Credentials{ProjectID: "p1", PublicKey: "k1"}, logging.Discard())
	good := map[string]string{recordapi.HeaderProjectID: "p1", recordapi.HeaderPublicKey: "k1"}

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    int
	}{
		{"missing credentials", "/api/tables/tasks/records/query", nil, http.StatusUnauthorized},
		{"wrong key", "/api/tables/tasks/records/query", map[string]string{recordapi.HeaderProjectID: "p1", recordapi.HeaderPublicKey: "nope"}, http.StatusUnauthorized},
		{"unknown table", "/api/tables/notes/records/query", good, http.StatusNotFound},
		{"ok", "/api/tables/tasks/records/query", good, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := doRequest(t, srv, http.MethodPost, tt.path, recordapi.FetchParams{}, tt.headers)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.want == http.StatusOK, resp.Success)
		})
	}
}

func TestServer_Records(t *testing.T) {
	srv := NewServer(newTestStore(t), Credentials{}, logging.Discard())

	status, resp := doRequest(t, srv, http.MethodPost, "/api/tables/tasks/records", map[string]any{
		"records": []map[string]any{{"title": "a"}, {"description": "untitled"}},
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)

	status, resp = doRequest(t, srv, http.MethodPost, "/api/tables/tasks/records/1/query", recordapi.FetchParams{}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"title":"a"`)

	status, resp = doRequest(t, srv, http.MethodPost, "/api/tables/tasks/records/5/query", recordapi.FetchParams{}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)

	status, _ = doRequest(t, srv, http.MethodPost, "/api/tables/tasks/records/abc/query", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doRequest(t, srv, http.MethodPut, "/api/tables/tasks/records", map[string]any{
		"records": []map[string]any{{"Id": 1, "completed": true}},
	}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Results, 1)
	assert.Contains(t, string(resp.Results[0].Data), `"completed":true`)

	status, resp = doRequest(t, srv, http.MethodDelete, "/api/tables/tasks/records", map[string]any{"RecordIds": []int64{1, 8}}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, http.StatusNotFound, resp.Results[1].StatusCode)

	status, _ = doRequest(t, srv, http.MethodDelete, "/api/tables/tasks/records", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_InvalidQuery(t *testing.T) {
	srv := NewServer(newTestStore(t), Credentials{}, logging.Discard())

	status, resp := doRequest(t, srv, http.MethodPost, "/api/tables/tasks/records/query", recordapi.FetchParams{
		Where: []recordapi.Condition{{FieldName: "bogus", Operator: recordapi.OperatorExactMatch, Values: []any{1}}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "bogus")
}
