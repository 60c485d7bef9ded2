// Package services implements the HTTP clients curate talks to.
//
// # Catalog
//
// [DiscogsService] is the catalog client. Every request is gated by a [RateLimiter]
// and authenticated with the personal access token read from a [models.CredentialStore]
// at call time, so a token saved mid-run is picked up by the next request.
//
// Label release listings are paginated at 100 per page and followed until the last
// page. Nothing here retries: a 429 surfaces as [shared.RateLimitError] and the caller
// decides whether to pause.
//
// # Todoist
//
// [TodoistService] turns a release into a task in a fixed project and section.
// Project and section ids are looked up by name and cached in the store for an hour.
// Authentication uses an [oauth2.StaticTokenSource] so the bearer header is set by the
// transport.
//
// # Error Handling
//
// Both clients return the typed errors from the shared package:
//   - [shared.ConfigError] : token not configured
//   - [shared.RateLimitError] : HTTP 429
//   - [shared.APIError] : any other non-2xx status, with the response body
package services
