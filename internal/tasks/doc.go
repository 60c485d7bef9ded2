// Package tasks runs the label ingestion pipeline and reports its progress.
//
// # Queue Processing
//
// [Processor.Run] walks a label queue in order. For each label it enumerates
// every release id through the catalog, then resolves each release through the
// release cache: cached releases cost nothing, misses are fetched once and stored.
//
// A 429 from the catalog pauses the run for the [RetryPolicy] delay and retries the
// same release. Any other release error is logged and the release skipped. A label
// whose enumeration fails is reported with BUILD_ERROR and left out of the
// completed list; the run moves on. Storage errors end the run.
//
// [Processor.RefreshReleases] is the missing-data pass: it re-fetches releases that
// were cached without a tracklist and merges the result, keeping their status.
//
// # Progress Reporting
//
// Runs report to a [Notifier]. Notifiers never block the run:
//   - [ChanNotifier] : drops events while its channel is full
//   - [Channel] : a hub keyed by session handle; publishing to a closed or unknown session does nothing
//
// Event kinds are BUILD_PROGRESS, BUILD_PAUSED, BUILD_ERROR, BUILD_COMPLETE and
// BUILD_CANCELLED. Progress events carry the per-label release counter and the
// overall fractional label counter.
//
// # Requests
//
// [Dispatcher] answers request/response messages (label lookups, queue
// additions, task creation) and starts background runs, one at a time. Runs are
// cancelled through their context, checked between labels, between releases and
// while paused.
package tasks
