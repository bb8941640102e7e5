//go:build windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the tool in a new process group
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// interruptProcess stops the tool. Windows has no SIGINT for child processes.
func interruptProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// killProcess force-stops the tool
func killProcess(cmd *exec.Cmd) error {
	return interruptProcess(cmd)
}
