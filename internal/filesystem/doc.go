// Package filesystem walks source trees and finds the files that carry
// vcc region tags.
//
// Walk a tree with the default ignore list:
//
//	err := filesystem.WalkWithDefaults(".", func(path string, info os.FileInfo) error {
//	    fmt.Println(path)
//	    return nil
//	})
//
// Find tagged files, resolving each file's comment delimiter from its
// extension:
//
//	files, err := filesystem.Discover("src", filesystem.DiscoverOptions{
//	    Namespace:    "vcc",
//	    DelimiterFor: cfg.DelimiterFor,
//	})
//
// Hidden entries and the directories in DefaultIgnoreDirs are skipped
// unless the options say otherwise.
package filesystem
