// Package artifacts persists files generated by the assistant and keeps a
// catalog of them.
//
// Store writes each file under the configured directory as
// <chat_id>_<index>.<ext> and returns the public URL it is served from.
// Every saved file is recorded in a Catalog so that retention can find
// and remove old files later.
//
// Two catalog backends are provided:
//
//   - memory: records live for the life of the process
//   - sqlite: records survive restarts (pure-Go driver, no cgo)
package artifacts
