// Package web serves the static page of the platform monitor.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var dist embed.FS

// Handler serves the page embedded in the binary. Requests for "/" get
// index.html.
func Handler() http.Handler {
	page, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FileServer(http.FS(page))
}
