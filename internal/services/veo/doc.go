// Package veo implements job.Provider for Google's Veo video models.
//
// Submission starts a long-running operation; polling reads the operation
// until done, and the artifact is either downloaded from the returned URI or
// decoded from inline base64 bytes.
package veo
