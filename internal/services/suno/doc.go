// Package suno implements job.Provider for the Suno music generation API.
package suno
