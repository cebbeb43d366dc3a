// Package files provides discovery of instrument data files on disk.
//
// Discovery finds the spreadsheet and delimited-text files the format
// handlers can open, either everything in a directory or files matching
// a glob pattern. Results are sorted by name so batch processing is
// deterministic.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Every recognizable data file in a directory
//	dataFiles, err := discovery.FindDataFiles("runs")
//
//	// Files matching a pattern
//	scans, err := discovery.FindFilesByPattern("runs", "scan_*.csv")
package files
