// Package services defines shared utilities consumed by the pipeline stages
// and the provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, project slugs, stage names, and
//     batch job indexes for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (validation, transient, terminal, timeout, tool, missing
//     collaborator) with errors.Is regardless of how deeply it was wrapped.
//
// Provider clients live in subpackages (veo, geminitts, suno, drapto) and
// share the HTTP status classification in httpapi.
package services
