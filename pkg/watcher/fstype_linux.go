//go:build linux

package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// statfs f_type magic numbers, see statfs(2).
const (
	magicNFS  = 0x6969
	magicSMB  = 0x517b
	magicCIFS = 0xff534d42
	magicSMB2 = 0xfe534d42
	magicFUSE = 0x65735546
	magic9P   = 0x01021997
)

// DetectFilesystemType classifies the filesystem holding path. A path that
// does not exist yet is resolved through its nearest existing parent.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}

	var st unix.Statfs_t
	for p := path; ; {
		err := unix.Statfs(p, &st)
		if err == nil {
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			return FSTypeUnknown
		}
		p = parent
	}

	switch uint32(st.Type) {
	case magicNFS:
		return FSTypeNFS
	case magicSMB, magicCIFS, magicSMB2:
		return FSTypeSMB
	case magic9P:
		return FSTypeNFS
	case magicFUSE:
		if isSSHFS(path) {
			return FSTypeSSHFS
		}
		return FSTypeFUSE
	}
	return FSTypeLocal
}

// isSSHFS looks up the longest /proc/mounts entry containing path.
func isSSHFS(path string) bool {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return false
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	best, bestType := "", ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mnt := fields[1]
		if (abs == mnt || strings.HasPrefix(abs, strings.TrimSuffix(mnt, "/")+"/")) && len(mnt) > len(best) {
			best, bestType = mnt, fields[2]
		}
	}
	return strings.Contains(bestType, "sshfs")
}
