//go:build windows

package crosslink

import (
	"os"
	"os/exec"
	"os/signal"
)

// The primitive layer is not implemented on Windows, so a launch fails at
// bundle creation before any of these helpers run. They exist so the
// package still builds here.

func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt)
}

func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func dupForInherit(files []*os.File) ([]*os.File, error) {
	return files, nil
}

func setExtraFiles(cmd *exec.Cmd, files []*os.File) []int {
	ids := make([]int, len(files))
	for i := range files {
		ids[i] = i + 3
	}
	return ids
}
