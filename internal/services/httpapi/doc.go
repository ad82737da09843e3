// Package httpapi is the JSON-over-HTTP transport shared by the provider
// clients.
//
// It owns error classification for remote calls: 408, 429, 5xx and network
// failures are tagged services.ErrTransient, other non-2xx answers are tagged
// services.ErrTerminal. A Retry-After header is surfaced on StatusError so
// the poller and operators can see the provider's hint.
package httpapi
