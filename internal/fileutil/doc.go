// Package fileutil implements the atomic file writes used for descriptors,
// artwork, and the file cache backend.
//
// Every write goes to a hidden temp file in the target directory and is
// renamed into place, so readers never observe a truncated file. Rename
// failures caused by EXDEV are reported as CrossDeviceError.
package fileutil
