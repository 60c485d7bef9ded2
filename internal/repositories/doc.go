// Package repositories implements persistence for curate.
//
// Documents live in a key-value [models.Store]. Three backends are provided:
//   - [SQLiteStore] : the kv_store table of the local SQLite database (default)
//   - [RedisStore] : one Redis string per key, for sharing a cache between machines
//   - [MemoryStore] : process-local, used by tests and the "memory" driver
//
// On top of a store sit the typed repositories:
//   - [ReleaseCache] : the release cache document, rewritten whole on every mutation
//   - [LabelRepository] : the pending queue and the completed-labels list
//   - [StoreCredentials] : API tokens saved with `curate setup tokens`
//
// [RunRepository] is the one relational repository: it records run summaries in the
// run_history table and always uses SQLite.
package repositories
