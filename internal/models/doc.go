// Package models defines the domain entities and persistence interfaces for curate.
//
// The package contains two categories of types:
//
// 1. Catalog records: data as returned by the Discogs API and cached locally
//   - [Label] : a queued or completed record label (id + display name)
//   - [LabelDetails] : the label profile returned by the catalog
//   - [Release] : cached release metadata, the only mutable field being Status
//
// 2. Persistence and credential interfaces implemented in the repositories package
//   - [Store] : a persistent key-value document store with change notifications
//   - [CredentialStore] : read access to API tokens
//   - [Run] : one recorded queue or missing-data run
//
// Store keys are versioned constants ([ReleaseCacheKey], [QueueKey], ...) so stored
// documents can be migrated by bumping the suffix.
package models
