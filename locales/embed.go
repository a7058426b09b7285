// Package locales embeds the translation files for the admin interface.
package locales

import "embed"

//go:embed *.toml
var FS embed.FS
