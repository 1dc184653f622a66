// Package users embeds the schema migrations for the users store.
package users

import "embed"

//go:embed *.sql
var FS embed.FS
