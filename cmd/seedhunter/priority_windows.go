//go:build windows

package main

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetProcessInformation = kernel32.NewProc("SetProcessInformation")
)

// raisePriority moves the process to the high priority class, falling back to
// above normal, and opts out of power throttling (Efficiency Mode).
func raisePriority() error {
	process := windows.CurrentProcess()

	// REALTIME can starve the rest of the system.
	if err := windows.SetPriorityClass(process, windows.HIGH_PRIORITY_CLASS); err != nil {
		if err := windows.SetPriorityClass(process, windows.ABOVE_NORMAL_PRIORITY_CLASS); err != nil {
			return err
		}
	}

	return disablePowerThrottling(process)
}

// disablePowerThrottling is available on Windows 10 1709+ and Windows 11.
func disablePowerThrottling(process windows.Handle) error {
	const (
		processPowerThrottling               = 4
		powerThrottlingExecutionSpeed uint32 = 0x1
	)

	type powerThrottlingState struct {
		Version     uint32
		ControlMask uint32
		StateMask   uint32
	}

	state := powerThrottlingState{
		Version:     1,
		ControlMask: powerThrottlingExecutionSpeed,
		StateMask:   0, // 0 = disable throttling
	}

	if err := procSetProcessInformation.Find(); err != nil {
		return err
	}
	ret, _, err := procSetProcessInformation.Call(
		uintptr(process),
		processPowerThrottling,
		uintptr(unsafe.Pointer(&state)),
		unsafe.Sizeof(state),
	)
	if ret == 0 {
		return err
	}
	return nil
}
