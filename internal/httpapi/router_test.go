package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sourcegraph/log/logtest"
	"github.com/stretchr/testify/require"

	"github.com/iliakonnov/shatterbird/internal/httpapi"
	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/lsp"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

func newTestServer(t *testing.T) (*httpapi.Server, model.Commit, model.Node) {
	t.Helper()
	ctx := context.Background()
	commits := storeapi.NewMemStore[model.Commit]()
	nodes := storeapi.NewMemStore[model.Node]()
	lines := storeapi.NewMemStore[model.Line]()
	ranges := storeapi.NewMemStore[model.Range]()
	vertices := storeapi.NewMemStore[model.Vertex]()
	edges := storeapi.NewMemStore[model.Edge]()
	blobs := storeapi.NewMemStore[model.BlobFile]()

	line := model.Line{Id: ids.New[model.Line](), Text: "package main"}
	require.NoError(t, lines.InsertOne(ctx, line))
	fileNode := model.Node{Id: ids.New[model.Node](), OID: testOID(t, 1), Content: model.NewTextContent(12, []ids.Id[model.Line]{line.Id})}
	require.NoError(t, nodes.InsertOne(ctx, fileNode))
	root := model.Node{Id: ids.New[model.Node](), OID: testOID(t, 2), Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{"main.go": fileNode.Id})}
	require.NoError(t, nodes.InsertOne(ctx, root))
	commit := model.Commit{Id: ids.New[model.Commit](), OID: testOID(t, 3), Root: root.Id}
	require.NoError(t, commits.InsertOne(ctx, commit))

	nav := query.New(commits, nodes, lines, ranges, vertices, edges)
	logger := logtest.Scoped(t)
	srv := httpapi.NewServer(commits, nodes, blobs, nav, logger)
	return srv, commit, fileNode
}

func testOID(t *testing.T, b byte) ids.OID {
	t.Helper()
	var raw [20]byte
	raw[0] = b
	o, err := ids.OIDFromBytes(raw[:])
	require.NoError(t, err)
	return o
}

func TestListAndGetCommit(t *testing.T) {
	srv, commit, _ := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/fs/commits", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/fs/commits/by-oid/"+commit.OID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/fs/commits/by-oid/deadbeef", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTree(t *testing.T) {
	srv, commit, fileNode := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/fs/tree/"+commit.OID.String()+"/main.go", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	node := body["node"].(map[string]any)
	require.Equal(t, fileNode.Id.String(), node["id"])

	req = httptest.NewRequest(http.MethodGet, "/api/fs/tree/"+commit.OID.String()+"/missing.go", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleInitialize(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/lsp/initialize", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result lsp.InitializeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Capabilities.HoverProvider)
}

func TestHandleHover_BadBody(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/lsp/textDocument/hover", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
