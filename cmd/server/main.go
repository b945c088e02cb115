// Command server exposes the HTTP surface (internal/httpapi) over an
// already-populated document store (spec §6). Bootstrap mirrors
// cmd/gitserver's shape: log.Init once, connect, EnsureIndexes, then serve.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliakonnov/shatterbird/internal/config"
	"github.com/iliakonnov/shatterbird/internal/httpapi"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/obsv"
	"github.com/iliakonnov/shatterbird/internal/query"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

func main() {
	liblog := log.Init(log.Resource{Name: "shatterbird-server"})
	defer liblog.Sync()
	logger := log.Scoped("server", "the shatterbird query HTTP service")

	settings := config.Settings{
		DBUrl:  config.Get("SHATTERBIRD_DB_URL", "mongodb://localhost:27017"),
		DBName: config.Get("SHATTERBIRD_DB_NAME", "shatterbird"),
	}
	addr := config.Get("SHATTERBIRD_HTTP_ADDR", ":8080")

	if err := run(logger, settings, addr); err != nil {
		logger.Fatal("server exited with an error", log.Error(err))
	}
}

func run(logger log.Logger, settings config.Settings, addr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(settings.DBUrl))
	if err != nil {
		return errors.Wrap(err, "server: connect to document store")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(settings.DBName)
	if err := storeapi.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "server: ensure indexes")
	}

	ops := obsv.NewContext(logger, "storeapi")
	commits := storeapi.New[model.Commit](db, ops)
	nodes := storeapi.New[model.Node](db, ops)
	lines := storeapi.New[model.Line](db, ops)
	ranges := storeapi.New[model.Range](db, ops)
	vertices := storeapi.New[model.Vertex](db, ops)
	edges := storeapi.New[model.Edge](db, ops)
	blobs := storeapi.New[model.BlobFile](db, ops)

	nav := query.New(commits, nodes, lines, ranges, vertices, edges)
	srv := httpapi.NewServer(commits, nodes, blobs, nav, logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", log.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
