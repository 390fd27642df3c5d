//go:build windows

package player

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	// CREATE_NO_WINDOW
	return &syscall.SysProcAttr{CreationFlags: 0x08000000}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	// taskkill walks the tree for us; its exit status is irrelevant when the process is already gone.
	_ = exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
	return cmd.Process.Kill()
}

// socketPath returns the named pipe for name; dir does not apply on windows.
func socketPath(_ string, name string) string {
	return `\\.\pipe\` + name
}

// DialSocket opens a named pipe.
func DialSocket(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.OpenFile(address, os.O_RDWR, 0)
}

// removeSocket is a no-op: named pipes vanish with their server.
func removeSocket(string) {}
