// Package config loads the indexer/server settings once into an immutable
// holder, reflecting spec §9's "no global state" design note and grounded on
// sourcegraph's internal/env Get/MustGetInt helpers (reimplemented locally —
// internal/env is monorepo-internal and not importable, DESIGN.md).
package config

import (
	"os"
	"strconv"
	"time"
)

// Settings is the immutable configuration shared by cmd/indexer and
// cmd/server. Callers build one at startup (from CLI flags, env defaults) and
// pass it by value into constructors; nothing reads it from a package global.
type Settings struct {
	// DBUrl is the document-store connection string ("--db-url" in spec §6).
	DBUrl string
	// DBName is the Mongo database to use within DBUrl's cluster.
	DBName string
}

// Get reads an environment variable, falling back to def. Mirrors the
// teacher's env.Get(name, def, description) signature minus the description
// (that is only used to render the teacher's own --help text generator).
func Get(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func GetInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetDuration(name string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
