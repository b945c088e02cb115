package httpapi

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
)

type commitView struct {
	Id      string   `json:"id"`
	OID     string   `json:"oid"`
	Root    string   `json:"root"`
	Parents []string `json:"parents"`
}

func toCommitView(c model.Commit) commitView {
	parents := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		parents = append(parents, p.String())
	}
	return commitView{Id: c.Id.String(), OID: c.OID.String(), Root: c.Root.String(), Parents: parents}
}

// handleListCommits answers GET /api/fs/commits: every ingested commit, newest
// insertion order is not guaranteed by the store so callers sort client-side.
func (s *Server) handleListCommits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := s.commits.Find(ctx, map[string]any{})
	if err != nil {
		writeError(w, r, s.logger, query.Internal(err, "list commits"))
		return
	}
	views := make([]commitView, 0, len(rows))
	for _, c := range rows {
		views = append(views, toCommitView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleCommitByID answers GET /api/fs/commits/by-id/{id}.
func (s *Server) handleCommitByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := mux.Vars(r)["id"]
	id, err := ids.ParseId[model.Commit](raw)
	if err != nil {
		writeError(w, r, s.logger, query.BadRequest("invalid commit id %q", raw))
		return
	}
	commit, ok, err := s.commits.Get(ctx, id)
	if err != nil {
		writeError(w, r, s.logger, query.Internal(err, "get commit"))
		return
	}
	if !ok {
		writeError(w, r, s.logger, query.NotFound("no commit with id %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, toCommitView(commit))
}

// handleCommitByOID answers GET /api/fs/commits/by-oid/{hex}.
func (s *Server) handleCommitByOID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := mux.Vars(r)["hex"]
	oid, err := ids.OIDFromHex(raw)
	if err != nil {
		writeError(w, r, s.logger, query.BadRequest("invalid git hash %q", raw))
		return
	}
	commit, ok, err := s.commits.GetByOID(ctx, oid)
	if err != nil {
		writeError(w, r, s.logger, query.Internal(err, "get commit by oid"))
		return
	}
	if !ok {
		writeError(w, r, s.logger, query.NotFound("no commit with hash %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, toCommitView(commit))
}

type nodeView struct {
	Id      string            `json:"id"`
	OID     string            `json:"oid,omitempty"`
	Kind    string            `json:"kind"`
	Target  string            `json:"target,omitempty"`
	Entries map[string]string `json:"entries,omitempty"`
	Size    uint64            `json:"size,omitempty"`
	Content string            `json:"content,omitempty"`
}

func toNodeView(n model.Node) nodeView {
	v := nodeView{Id: n.Id.String(), OID: n.OID.String(), Kind: string(n.Content.Kind)}
	switch n.Content.Kind {
	case model.NodeSymlink:
		v.Target = n.Content.Symlink.Target
	case model.NodeDirectory:
		v.Entries = make(map[string]string, len(n.Content.Directory.Children))
		for name, id := range n.Content.Directory.Children {
			v.Entries[name] = id.String()
		}
	case model.NodeText:
		v.Size = n.Content.Text.Size
	case model.NodeBlob:
		v.Size = n.Content.Blob.Size
		v.Content = n.Content.Blob.Content.String()
	}
	return v
}

// handleNode answers GET /api/fs/nodes/{id} with the raw Node row.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := mux.Vars(r)["id"]
	id, err := ids.ParseId[model.Node](raw)
	if err != nil {
		writeError(w, r, s.logger, query.BadRequest("invalid node id %q", raw))
		return
	}
	node, ok, err := s.nodes.Get(ctx, id)
	if err != nil {
		writeError(w, r, s.logger, query.Internal(err, "get node"))
		return
	}
	if !ok {
		writeError(w, r, s.logger, query.NotFound("no node with id %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, toNodeView(node))
}

// handleBlob answers GET /api/fs/blobs/{id} with the truncated blob payload,
// hex-encoded, or raw bytes when the caller requests ?raw=true.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := mux.Vars(r)["id"]
	id, err := ids.ParseId[model.BlobFile](raw)
	if err != nil {
		writeError(w, r, s.logger, query.BadRequest("invalid blob id %q", raw))
		return
	}
	blob, ok, err := s.blobs.Get(ctx, id)
	if err != nil {
		writeError(w, r, s.logger, query.Internal(err, "get blob"))
		return
	}
	if !ok {
		writeError(w, r, s.logger, query.NotFound("no blob with id %q", raw))
		return
	}
	if r.URL.Query().Get("raw") == "true" {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(blob.Data)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": blob.Id.String(), "data_hex": hex.EncodeToString(blob.Data)})
}

// handleTree answers GET /api/fs/tree/{commit}[/{path...}]: resolve the
// bird:// path rooted at the named commit and describe the node there. With
// ?short=true, directory entries are names only (no child node fetch).
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	commitRaw := vars["commit"]

	path := strings.TrimPrefix(r.URL.Path, "/api/fs/tree/"+commitRaw)
	path = strings.Trim(path, "/")

	uri := "bird:///" + commitRaw
	if path != "" {
		uri += "/" + path
	}

	node, commit, err := s.nav.ResolveURL(ctx, uri)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	view := toNodeView(node)
	if node.Content.Kind == model.NodeDirectory && r.URL.Query().Get("short") == "true" {
		names := make(map[string]string, len(node.Content.Directory.Children))
		for name := range node.Content.Directory.Children {
			names[name] = ""
		}
		view.Entries = names
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"commit": toCommitView(commit),
		"node":   view,
	})
}
