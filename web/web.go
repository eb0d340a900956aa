// Package web embeds the HTML form template and static assets served by the
// plate calculator.
package web

import "embed"

// Assets holds templates/ and static/.
//
//go:embed templates static
var Assets embed.FS
