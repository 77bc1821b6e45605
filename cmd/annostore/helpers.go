// Shared helpers for annostore CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/pkg/sqlite"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

// attachStore resolves the data directory and namespace, creates a
// SQLite store, and attaches it. The caller must defer store.Detach().
func attachStore() (types.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	namespace, err := resolveNamespace()
	if err != nil {
		return nil, err
	}

	store := sqlite.NewStore()
	if flagVerbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		store = sqlite.NewStoreWithLogger(logger)
	}

	cfg := types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   dataDir,
		Namespace: namespace,
	}
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	return store, nil
}

// printResult emits v as JSON when --json is set, otherwise with the
// fallback text printer.
func printResult(v any, text func()) error {
	if flagJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	text()
	return nil
}

// parseIDs parses comma-separated annotation ids.
func parseIDs(arg string) ([]int64, error) {
	parts := strings.Split(arg, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid annotation id %q", p)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no annotation ids given")
	}
	return ids, nil
}

// readRecords reads annotation records as JSON from a file, or from
// stdin when path is "-". Accepts either a single object or an array.
func readRecords(path string) ([]types.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []types.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var single types.Record
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return []types.Record{single}, nil
}
