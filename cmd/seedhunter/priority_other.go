//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package main

import "errors"

func raisePriority() error {
	return errors.New("raising process priority is not supported on this platform")
}
