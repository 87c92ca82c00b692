// Package migrations embeds the versioned SQL schema so the server and the
// migrate CLI can apply it without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
