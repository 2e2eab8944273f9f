// Package publisher sends finished clips to the social video destination.
//
// Two upload paths exist. Small files go through a single multipart
// request. Everything else uses the destination's resumable session
// protocol: an init call opens a session, a transfer call streams the file
// bytes, and a finish call attaches the caption and publishes. Each phase
// is retried independently; a phase that exhausts its retries fails the
// publish with a classification naming the phase that gave up.
package publisher
