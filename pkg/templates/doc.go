// Package templates loads template source, compiles it once and builds
// fresh node trees on demand.
//
// A Set ties a Loader to a registry. Sources come from any fs.FS
// (NewDirLoader for a directory on disk) or from an S3 bucket
// (NewS3Loader). Compiled programs are cached with an optional TTL and
// invalidated by hand or by Watch, which follows file changes under a
// template directory.
//
//	set := templates.New(templates.Options{
//	    Loader:   templates.NewDirLoader("templates"),
//	    Registry: dom.Tags,
//	})
//	page, err := set.Build(ctx, "home")
//
// Compilation and builds are traced and, with Options.Metrics, counted.
package templates
