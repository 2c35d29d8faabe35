package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
