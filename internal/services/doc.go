// Package services talks to the hosted backend that owns accounts.
//
// # Backend Client
//
// [BackendClient] performs raw JSON requests against the backend, attaching the project API key
// (apikey header and bearer token) to every call.
//
// # Authentication
//
// [HostedAuth] implements [Authenticator]:
//   - Register posts to /auth/v1/signup with the display name in the user metadata
//   - Login runs an OAuth2 resource-owner password grant against /auth/v1/token using
//     golang.org/x/oauth2, so token parsing and expiry handling come from the library
//
// Both mirror the account into the local users table so recordings can reference it.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingArgument] : a required registration field is empty
//   - [shared.ErrAuthFailed] : the backend rejected the credentials or sign-up
//   - [shared.ErrAPIRequest] : the HTTP request itself failed
package services
