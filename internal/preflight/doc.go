// Package preflight provides readiness checks for the binaries, credentials
// and filesystem paths vidforge depends on.
//
// These checks run in two contexts:
//   - `vidforge assemble` calls RunAll before touching any provider so a
//     missing key or full disk fails fast instead of after minutes of
//     generation.
//   - `vidforge status` prints every result, including optional ones.
package preflight
