// Package cmd implements the command-line interface for meetbook.
//
// This package provides the following commands:
//   - serve: Run the scheduling HTTP server, the metrics server and the link sweep
//   - auth: Run the one-time Google OAuth consent flow; auth status reports the token
//   - meetings: List meetings, generate missing Meet links and change status
//   - admin-token: Issue a bearer token for the admin HTTP routes
//   - generate-docs: Generate markdown documentation for all commands
//   - version: Display version information
//
// Configuration comes from the environment and an optional .env file, see
// internal/config.
package cmd
