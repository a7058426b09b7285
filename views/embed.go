// Package views embeds the HTML templates rendered by the web handlers and
// the mailer.
package views

import "embed"

//go:embed *.html layouts/*.html email/*.html
var FS embed.FS
