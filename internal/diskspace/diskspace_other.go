//go:build !linux && !darwin && !freebsd && !windows

package diskspace

func availableBytes(dir string) (int64, bool) {
	return 0, false
}
