// Package server exposes meetbook over HTTP.
//
// The public router carries:
//   - POST /schedule-meeting, the visitor scheduling endpoint
//   - /admin/meetings routes for listing meetings, generating missing links
//     and changing status, guarded by AdminAuth
//   - /healthz, /readyz and /healthz/detailed health endpoints
//
// MetricsServer serves the Prometheus endpoint on its own address so it is
// never exposed alongside the public routes.
//
// Admin requests authenticate with "Authorization: Bearer <token>", where
// the token is either the configured static ADMIN_TOKEN or an HS256 JWT
// issued by IssueAdminToken with ADMIN_JWT_SECRET.
package server
