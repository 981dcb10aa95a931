//go:build !linux

package watcher

// DetectFilesystemType is only implemented on linux.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
