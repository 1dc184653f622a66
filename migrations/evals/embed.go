// Package evals embeds the schema migrations for the evals store: the
// execution queue, evaluation results, billing ledgers, reports, and
// external batch correlation records.
package evals

import "embed"

//go:embed *.sql
var FS embed.FS
