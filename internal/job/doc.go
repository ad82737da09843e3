// Package job models one asynchronous unit of remote generation work and the
// poller that drives it from submission to a terminal state.
//
// Providers expose only Submit, Poll, and Fetch. The Poller owns the handle,
// applies a Policy (interval, timeout, transient error budget) through the
// pure NextAction function, and writes the finished artifact to a caller
// supplied path so Succeeded carries a path rather than a payload. Timing is
// read through a Clock so tests run without real sleeps.
//
// Giving up on a job never cancels it remotely; the provider may still finish
// the work after TimedOut is returned.
package job
