// Package docstore keeps the blobs that belong to published apps: versioned
// workbooks, UI schemas and cover images.
//
// Storage is the raw key/value backend (LocalStorage on disk, S3Storage on
// Amazon S3 or any S3-compatible service). Library lays app files out on top
// of it:
//
//	<owner>/<name>/<version>/<name>.xlsx
//	<owner>/<name>/<version>/ui.json
//	<owner>/<name>/<version>/cover.png
//	<owner>/<name>/<version>/meta.txt
//	<owner>/<name>/ui.json
//	<owner>/<name>/cover.png
//
// The unversioned ui.json and cover.png hold the most recently saved copy and
// serve as fallbacks for versions that have none.
//
// Engines open files from the local filesystem, so Storage.LocalPath
// materialises a key on disk: LocalStorage returns the file itself and
// S3Storage downloads it into a cache directory first.
package docstore
