//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package main

import "golang.org/x/sys/unix"

// niceness requested for grinding. Lowering it below the current value needs
// CAP_SYS_NICE or root, otherwise the call fails and the priority is kept.
const niceness = -10

func raisePriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, niceness)
}
