// Package web holds the embedded entry document for the companion service.
//
// The companion service is API-first; every GET that no API route claims
// falls through to this single page, which is how single-page-app hosting
// behaves in production deployments.
package web

import _ "embed"

//go:embed static/index.html
var Index []byte
