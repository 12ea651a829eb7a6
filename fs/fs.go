package appfs

import "embed"

// FS embeds the database migrations and the email templates so both binaries
// ship self-contained.
//go:embed migrations templates
var FS embed.FS
