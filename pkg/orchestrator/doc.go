// Package orchestrator turns one chat completion request into the upstream
// calls that answer it.
//
// A turn runs through these stages in order:
//
//	FINGERPRINT      digest the first message to identify the conversation
//	SESSION_RESOLVE  reuse a cached upstream session or create one, rotating
//	                 accounts on failure
//	CONTENT_PREP     collect images from the last message and build the
//	                 plain-text transcript
//	STREAM           upload images, then fetch the complete answer
//	ARTIFACT_CHECK   list generated files; when there are none, run the whole
//	                 turn once more on the next account in pool order
//	RESPOND          persist the first downloadable file or fall back to text
//
// Upstream calls within a request are strictly sequential. Only the remote
// image fetches of CONTENT_PREP run concurrently.
package orchestrator
