// Package google provides OAuth2 authentication and token management for Google APIs.
//
// The deployment holds a single credential, stored as a JSON file by
// FileCredentialStore. Expired access tokens are refreshed transparently on
// Load and the result is written back before it is handed out.
//
// The CredentialStore interface lets the calendar client and the Gmail
// notification transport share that credential without knowing where it lives.
package google
