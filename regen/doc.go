// Package regen is the entry point for regenerating files that contain
// vcc regions.
//
// Two operations are provided. Sync reconciles a freshly generated document
// with the document currently on disk, keeping user-owned regions. Generate
// injects content into a single named region of a template.
//
//	out, err := regen.SyncFileContent(merge.Full, generated, onDisk, "//")
//
// Both are pure string-to-string functions; reading and writing files is
// left to the caller (see the generator package).
package regen
