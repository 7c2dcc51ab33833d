// Package files finds collections and workbooks under the data directory and
// manages the files written to the output directory.
//
// Discovery lists collections, the folders of the data directory that hold
// .xlsx workbooks, and validates requested collection names with
// suggestions for near misses.
//
// Manager resolves "output/" and "logs/" prefixed paths against the
// configured directories and writes files atomically.
//
//	discovery := files.NewDiscovery(paths.DataDir, config.ExcludedFolders)
//	valid, invalid, err := discovery.ValidateCollections([]string{"1 INO", "2 PHY"})
package files
