//go:build linux

package threadcheck

import "golang.org/x/sys/unix"

func threadID() int {
	return unix.Gettid()
}
