// Package server is the blox preview server.
//
// It renders any template of a templates.Set at /{name}, shows the node
// tree at /_blox/tree/{name}, lists templates at / and optionally exposes
// Prometheus metrics at /metrics. With a templates.Watcher attached,
// rendered pages carry a small script that reconnects to /_blox/reload
// and reloads the page when its templates change on disk.
//
//	set := templates.New(templates.Options{Loader: templates.NewDirLoader("templates"), Registry: dom.Tags})
//	srv := server.New(server.Options{Templates: set})
//	err := srv.ListenAndServe(ctx, "localhost:8080")
package server
