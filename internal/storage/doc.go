// Package storage persists the race snapshot between runs.
//
// Exactly one snapshot is tracked per deployment, under a fixed key. A Store
// loads the previous snapshot at the start of a run and replaces it at the end;
// there is no history and no merging. Backends:
//   - file:   JSON file in a local data directory (~/.local/share/nyrr-watch)
//   - gist:   a file in a GitHub Gist
//   - sqlite: a single-row key/value table
//   - redis:  a single string key
//   - none:   nothing is stored; every run starts without a baseline
//
// When an encryption key is configured the serialized snapshot is sealed before
// it reaches the backend.
package storage
