//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package core

import "syscall"

func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
