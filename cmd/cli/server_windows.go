//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detachProcess starts the child in its own process group so console
// interrupts aimed at the CLI do not reach it
func detachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
