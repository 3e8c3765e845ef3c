// Package bulk loads a Netflix-prize style corpus into a static snapshot.
//
// The corpus has a metadata file of "<id>,<year>,<title>" lines and a
// directory of per-item files, each starting with an "<id>:" header followed
// by "<user>,<rating>,<YYYY-MM-DD>" records. Item ids are dense, so the
// metadata becomes a position-addressable index.
//
// Preference files are parsed concurrently with a bounded errgroup. The rows
// are not sorted by user, so they are accumulated in a map and turned into one
// model.Snapshot at the end. The result is read-only and never refreshed.
//
// Any malformed record or reference to an unknown item aborts the load with a
// *model.ParseError naming the file and line.
//
// # Sources
//
// DirSource reads from an fs.FS such as os.DirFS. BucketSource reads the same
// layout from an S3 or MinIO bucket through core/storage.
package bulk
