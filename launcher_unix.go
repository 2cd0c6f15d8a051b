//go:build !windows

package crosslink

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSignalsForChannel routes SIGINT and SIGTERM to the channel so a dying
// parent tears its children down with it.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
}

// terminateProcess asks the child to exit gracefully.
func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGTERM)
}

// dupForInherit duplicates descriptors for handoff to a child. Going
// through SyscallConn instead of Fd keeps the originals registered with
// the runtime poller, so parent-side deadline cancellation keeps working
// after a launch.
func dupForInherit(files []*os.File) ([]*os.File, error) {
	dups := make([]*os.File, 0, len(files))
	fail := func(err error) ([]*os.File, error) {
		for _, d := range dups {
			d.Close()
		}
		return nil, err
	}
	for _, f := range files {
		rc, err := f.SyscallConn()
		if err != nil {
			return fail(sysErr("dup", err))
		}
		var nfd int
		var derr error
		if err := rc.Control(func(fd uintptr) {
			nfd, derr = unix.Dup(int(fd))
		}); err != nil {
			return fail(sysErr("dup", err))
		}
		if derr != nil {
			return fail(sysErr("dup", derr))
		}
		dups = append(dups, os.NewFile(uintptr(nfd), f.Name()))
	}
	return dups, nil
}

// setExtraFiles attaches the bundle descriptors to the command and returns
// the identities they will occupy inside the child. Stdio takes 0-2, so
// inherited descriptors land at 3, 4, 5, ... in ExtraFiles order.
func setExtraFiles(cmd *exec.Cmd, files []*os.File) []int {
	cmd.ExtraFiles = files
	ids := make([]int, len(files))
	for i := range files {
		ids[i] = i + 3
	}
	return ids
}
