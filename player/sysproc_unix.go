//go:build !windows

package player

import (
	"context"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	// Kill the entire process group
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}

// socketPath returns the control socket location for name inside dir.
func socketPath(dir, name string) string {
	return filepath.Join(dir, name+".sock")
}

// DialSocket connects to a unix domain socket.
func DialSocket(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", address)
}

// removeSocket deletes the socket file left behind by the engine.
func removeSocket(address string) {
	_ = os.Remove(address)
}
