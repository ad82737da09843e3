// Package geminitts implements job.Provider for Gemini text-to-speech.
//
// The API answers synchronously with inline 16-bit PCM, so Submit returns a
// handle that already carries the result and Fetch wraps the samples in a
// WAV container.
package geminitts
