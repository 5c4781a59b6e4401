// Package upstream talks to the Gemini Business widget API.
//
// Gateway exposes one method per backend operation. Each method obtains a
// bearer token from the account, sends exactly one HTTP request with the
// browser header set the backend expects, and decodes the reply. Retries
// and account rotation are the caller's concern.
//
// Failures of session creation, file upload and answer streaming are
// returned as typed errors carrying the account and status code. Listing
// and downloading generated files fail soft: a bad status yields an empty
// result, and only a token failure is returned as an error.
package upstream
