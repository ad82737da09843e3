// Package history persists assembly runs in a SQLite ledger.
//
// Every `vidforge assemble` invocation records one run row plus its ordered
// stage results, so `vidforge history` can list past runs and show where a
// failed run stopped. Schema changes ship as embedded migrations applied on
// Open.
package history
