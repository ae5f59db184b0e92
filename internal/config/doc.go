// Package config loads meetbook's runtime settings.
//
// Settings come from environment variables, optionally seeded from a .env
// file. Variable names follow the deployment the service replaced
// (GOOGLE_CLIENT_ID, EMAIL_HOST_USER, DEFAULT_FROM_EMAIL and so on), so an
// existing environment file keeps working.
package config
