// Command indexer ingests Git commits and LSIF dumps into the document store
// (spec §6). It mirrors dev/sg's urfave/cli/v2 command-tree shape: one global
// --db-url flag shared by every subcommand, with all setup deferred to each
// command's Action rather than package-level init.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sourcegraph/log"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliakonnov/shatterbird/internal/config"
	"github.com/iliakonnov/shatterbird/internal/gitingest"
	"github.com/iliakonnov/shatterbird/internal/graphdot"
	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/lsif"
	"github.com/iliakonnov/shatterbird/internal/lsifconvert"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/obsv"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

var (
	logger log.Logger
	ops    *obsv.Context
)

func main() {
	liblog := log.Init(log.Resource{Name: "shatterbird-indexer"})
	defer liblog.Sync()
	logger = log.Scoped("indexer", "git/lsif ingestion CLI")
	ops = obsv.NewContext(logger, "storeapi")

	app := &cli.App{
		Name:  "indexer",
		Usage: "ingest Git history and LSIF dumps into the shatterbird document store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Usage:    "document store connection string",
				Required: true,
				EnvVars:  []string{"SHATTERBIRD_DB_URL"},
			},
		},
		Commands: []*cli.Command{
			gitCommand,
			lsifCommand,
			graphCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("indexer exited with an error", log.Error(err))
		os.Exit(1)
	}
}

func connect(ctx context.Context, c *cli.Context) (*mongo.Database, func(context.Context) error, error) {
	dbURL := c.String("db-url")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURL))
	if err != nil {
		return nil, nil, errors.Wrap(err, "indexer: connect to document store")
	}
	db := client.Database(config.Get("SHATTERBIRD_DB_NAME", "shatterbird"))
	return db, client.Disconnect, nil
}

var gitCommand = &cli.Command{
	Name:  "git",
	Usage: "ingest a commit and its ancestors from a local Git working tree",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "root", Usage: "path to the Git repository", Value: "."},
		&cli.StringFlag{Name: "commit", Usage: "commit-ish to ingest (defaults to HEAD)"},
		&cli.IntFlag{Name: "max-depth", Usage: "maximum number of ancestor generations to ingest", Value: 1},
	},
	Action: func(c *cli.Context) error {
		ctx := c.Context
		db, disconnect, err := connect(ctx, c)
		if err != nil {
			return err
		}
		defer disconnect(ctx)

		repo, err := gogit.PlainOpen(c.String("root"))
		if err != nil {
			return errors.Wrap(err, "indexer: open git repository")
		}

		var hash plumbing.Hash
		if rev := c.String("commit"); rev != "" {
			resolved, err := repo.ResolveRevision(plumbing.Revision(rev))
			if err != nil {
				return errors.Wrapf(err, "indexer: resolve revision %q", rev)
			}
			hash = *resolved
		} else {
			head, err := repo.Head()
			if err != nil {
				return errors.Wrap(err, "indexer: resolve HEAD")
			}
			hash = head.Hash()
		}

		ig := gitingest.New(
			repo,
			storeapi.New[model.Line](db, ops),
			storeapi.New[model.Range](db, ops),
			storeapi.New[model.BlobFile](db, ops),
			storeapi.New[model.Node](db, ops),
			storeapi.New[model.Commit](db, ops),
			logger,
		)

		commitID, err := ig.IngestCommit(ctx, hash, c.Int("max-depth"))
		if err != nil {
			return errors.Wrap(err, "indexer: ingest commit")
		}
		fmt.Fprintf(c.App.Writer, "ingested commit %s -> %s\n", hash.String(), commitID)
		return nil
	},
}

var lsifCommand = &cli.Command{
	Name:  "lsif",
	Usage: "convert an LSIF NDJSON dump into Vertex/Edge/Range rows",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "input", Usage: "path to the LSIF dump, or - for stdin", Required: true},
		&cli.StringSliceFlag{Name: "roots", Usage: "DIR=commit-id mappings anchoring document URIs, may be repeated"},
	},
	Action: func(c *cli.Context) error {
		ctx := c.Context
		db, disconnect, err := connect(ctx, c)
		if err != nil {
			return err
		}
		defer disconnect(ctx)

		var r io.Reader
		if c.String("input") == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(c.String("input"))
			if err != nil {
				return errors.Wrap(err, "indexer: open lsif input")
			}
			defer f.Close()
			r = f
		}

		holder, err := lsif.Parse(r)
		if err != nil {
			return errors.Wrap(err, "indexer: parse lsif dump")
		}
		graph := holder.Build()

		roots, err := parseRoots(ctx, storeapi.New[model.Commit](db, ops), c.StringSlice("roots"))
		if err != nil {
			return err
		}

		conv := lsifconvert.New(
			graph,
			roots,
			storeapi.New[model.Commit](db, ops),
			storeapi.New[model.Node](db, ops),
			storeapi.New[model.Range](db, ops),
			storeapi.New[model.Vertex](db, ops),
			storeapi.New[model.Edge](db, ops),
			logger,
		)
		if err := conv.Run(ctx); err != nil {
			return errors.Wrap(err, "indexer: convert lsif graph")
		}
		fmt.Fprintln(c.App.Writer, "lsif conversion complete")
		return nil
	},
}

var graphCommand = &cli.Command{
	Name:  "graph",
	Usage: "render the vertex/edge neighborhood around a Range as a Graphviz DOT file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "range-id", Required: true},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true},
	},
	Action: func(c *cli.Context) error {
		ctx := c.Context
		db, disconnect, err := connect(ctx, c)
		if err != nil {
			return err
		}
		defer disconnect(ctx)

		rangeID, err := ids.ParseId[model.Range](c.String("range-id"))
		if err != nil {
			return errors.Wrap(err, "indexer: parse range id")
		}

		out, err := os.Create(c.String("output"))
		if err != nil {
			return errors.Wrap(err, "indexer: create output file")
		}
		defer out.Close()

		renderer := graphdot.New(storeapi.New[model.Range](db, ops), storeapi.New[model.Vertex](db, ops), storeapi.New[model.Edge](db, ops))
		if err := renderer.Render(ctx, rangeID, out); err != nil {
			return errors.Wrap(err, "indexer: render graph")
		}
		return nil
	},
}

// parseRoots parses "DIR=commit-id|git-hex" flag values into RootMappings
// (spec §6's `--roots DIR=<commit-id|git-hex>`): a value that decodes as a
// 12-byte store id is taken as a Commit id directly; otherwise it is resolved
// as a 20-byte Git commit hash via the store's oid index.
func parseRoots(ctx context.Context, commits storeapi.Store[model.Commit], raw []string) ([]lsifconvert.RootMapping, error) {
	mappings := make([]lsifconvert.RootMapping, 0, len(raw))
	for _, entry := range raw {
		dir, ref, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, errors.Newf("indexer: malformed --roots entry %q, expected DIR=commit-id-or-git-hex", entry)
		}
		commitID, err := resolveRootRef(ctx, commits, ref)
		if err != nil {
			return nil, errors.Wrapf(err, "indexer: malformed --roots entry %q", entry)
		}
		mappings = append(mappings, lsifconvert.RootMapping{Dir: dir, Commit: commitID})
	}
	return mappings, nil
}

func resolveRootRef(ctx context.Context, commits storeapi.Store[model.Commit], ref string) (ids.Id[model.Commit], error) {
	if commitID, err := ids.ParseId[model.Commit](ref); err == nil {
		return commitID, nil
	}
	oid, err := ids.OIDFromHex(ref)
	if err != nil {
		return ids.Id[model.Commit]{}, errors.Newf("%q is neither a valid commit id nor a git hash", ref)
	}
	commit, found, err := commits.GetByOID(ctx, oid)
	if err != nil {
		return ids.Id[model.Commit]{}, err
	}
	if !found {
		return ids.Id[model.Commit]{}, errors.Newf("no commit ingested with git hash %q", ref)
	}
	return commit.Id, nil
}

