package gitingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/sourcegraph/log/logtest"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	billyutil "github.com/go-git/go-billy/v5/util"

	"github.com/iliakonnov/shatterbird/internal/gitingest"
	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

func newInMemoryRepo(t *testing.T) (*git.Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	storer := memory.NewStorage()
	repo, err := git.Init(storer, fs)
	require.NoError(t, err)
	return repo, fs
}

func commitFile(t *testing.T, repo *git.Repository, fs billy.Filesystem, path, contents, message string) object.Commit {
	t.Helper()
	require.NoError(t, billyutil.WriteFile(fs, path, []byte(contents), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(path)
	require.NoError(t, err)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)
	commit, err := repo.CommitObject(hash)
	require.NoError(t, err)
	return *commit
}

// S1 — Git ingest, two lines changed: parent "x\ny\nz\n", child "x\nY\nz\n".
// After ingesting with max_depth=1, x and z are reused across revisions; the
// changed middle line gets a fresh id (P3).
func TestIngestCommit_LineDedup(t *testing.T) {
	ctx := context.Background()
	repo, fs := newInMemoryRepo(t)

	parentCommit := commitFile(t, repo, fs, "a.txt", "x\ny\nz\n", "parent")
	childCommit := commitFile(t, repo, fs, "a.txt", "x\nY\nz\n", "child")

	lines := storeapi.NewMemStore[model.Line]()
	ranges := storeapi.NewMemStore[model.Range]()
	blobFiles := storeapi.NewMemStore[model.BlobFile]()
	nodes := storeapi.NewMemStore[model.Node]()
	commits := storeapi.NewMemStore[model.Commit]()

	logger := logtest.Scoped(t)
	ig := gitingest.New(repo, lines, ranges, blobFiles, nodes, commits, logger)

	childID, err := ig.IngestCommit(ctx, childCommit.Hash, 1)
	require.NoError(t, err)

	childRow, ok, err := commits.Get(ctx, childID)
	require.NoError(t, err)
	require.True(t, ok)

	parentOID, err := ids.OIDFromBytes(parentCommit.Hash[:])
	require.NoError(t, err)
	parentRow, ok, err := commits.GetByOID(ctx, parentOID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, parentRow.Parents, 0)

	childRoot, ok, err := nodes.Get(ctx, childRow.Root)
	require.NoError(t, err)
	require.True(t, ok)
	childFileID := childRoot.Content.Directory.Children["a.txt"]
	childFile, ok, err := nodes.Get(ctx, childFileID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.NodeText, childFile.Content.Kind)
	require.Len(t, childFile.Content.Text.Lines, 3)

	parentRoot, ok, err := nodes.Get(ctx, parentRow.Root)
	require.NoError(t, err)
	require.True(t, ok)
	parentFileID := parentRoot.Content.Directory.Children["a.txt"]
	parentFile, ok, err := nodes.Get(ctx, parentFileID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, parentFile.Content.Text.Lines, 3)

	// x (line 0) and z (line 2) are unchanged: same Line id across revisions.
	require.Equal(t, parentFile.Content.Text.Lines[0], childFile.Content.Text.Lines[0])
	require.Equal(t, parentFile.Content.Text.Lines[2], childFile.Content.Text.Lines[2])
	// y -> Y (line 1) changed: distinct Line id.
	require.NotEqual(t, parentFile.Content.Text.Lines[1], childFile.Content.Text.Lines[1])
}

// P1 — ingesting the same commit twice leaves the store unchanged.
func TestIngestCommit_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo, fs := newInMemoryRepo(t)
	commit := commitFile(t, repo, fs, "a.txt", "hello\n", "only")

	lines := storeapi.NewMemStore[model.Line]()
	ranges := storeapi.NewMemStore[model.Range]()
	blobFiles := storeapi.NewMemStore[model.BlobFile]()
	nodes := storeapi.NewMemStore[model.Node]()
	commits := storeapi.NewMemStore[model.Commit]()
	logger := logtest.Scoped(t)
	ig := gitingest.New(repo, lines, ranges, blobFiles, nodes, commits, logger)

	id1, err := ig.IngestCommit(ctx, commit.Hash, 0)
	require.NoError(t, err)
	rowsBefore, err := lines.Find(ctx, bson.M{})
	require.NoError(t, err)

	id2, err := ig.IngestCommit(ctx, commit.Hash, 0)
	require.NoError(t, err)
	rowsAfter, err := lines.Find(ctx, bson.M{})
	require.NoError(t, err)

	require.Equal(t, id1, id2)
	require.Len(t, rowsAfter, len(rowsBefore))
}
