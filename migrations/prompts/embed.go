// Package prompts embeds the schema migrations for the prompts store:
// prompts, prompt groups, and the group/prompt bindings between them.
package prompts

import "embed"

//go:embed *.sql
var FS embed.FS
