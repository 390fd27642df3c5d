package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mellow-player/mellow/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Process is a running engine instance.
type Process interface {
	// Pid returns the operating system process id.
	Pid() int

	// Done is closed once the process has exited.
	Done() <-chan struct{}

	// Kill forcibly terminates the process and every descendant.
	// A process that is already gone is not an error.
	Kill() error
}

// Launcher spawns engine processes.
type Launcher interface {
	Launch(binary string, args []string) (Process, error)
}

// Dialer opens the engine's control socket.
type Dialer func(ctx context.Context, address string) (io.ReadWriteCloser, error)

// ExecLauncher starts the engine with os/exec.
type ExecLauncher struct{}

// Launch starts binary detached into its own process group with standard streams discarded.
func (ExecLauncher) Launch(binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = sysProcAttr()

	// Only the socket is a control channel; whatever the engine complains
	// about on stderr ends up in the log.
	cmd.Stdout = nil
	cmd.Stderr = log.Writer()
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &execProcess{cmd: cmd, exited: make(chan struct{})}

	// Reap the process so it never lingers as a zombie.
	go func() {
		err := cmd.Wait()
		log.Infof("engine process %d exited: %v", cmd.Process.Pid, err)
		close(p.exited)
	}()

	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }
func (p *execProcess) Done() <-chan struct{} { return p.exited }

func (p *execProcess) Kill() error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	killTree(p.Pid())

	if err := killProcess(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill engine %d: %w", p.Pid(), err)
	}
	return nil
}

// killTree kills every descendant of pid, deepest first.
// Helpers the engine spawned (e.g. ytdl hooks) are not in its group on every platform.
func killTree(pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}

	children, err := proc.Children()
	if err != nil {
		return
	}

	for _, child := range children {
		killTree(int(child.Pid))
		if err := child.Kill(); err != nil {
			log.Debugf("kill engine child %d: %v", child.Pid, err)
		}
	}
}
