package crosslink

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Child pairs a launched worker process with its channel. Children are
// owned by the Launcher that created them; no two children share a channel
// or a process.
type Child struct {
	// ID identifies the child in logs and bookkeeping.
	ID uuid.UUID

	// Cmd is the underlying process handle.
	Cmd *exec.Cmd

	// Channel is the parent side of the child's shared-memory channel.
	// It is created holding the lock; call Unlock once parent-side slot
	// setup is done.
	Channel *Channel

	log zerolog.Logger
}

// Launcher creates worker processes, each wired to its own shared-memory
// channel, and tracks them in launch order.
//
// Launch performs a sequence of blocking OS calls on the calling goroutine
// and returns once the child process exists, before any handshake. The
// child collection is not internally synchronized; callers that launch
// from multiple goroutines must serialize externally.
type Launcher struct {
	// Logger receives breadcrumbs for launch steps, launch failures, and
	// forced child termination. Defaults to a no-op logger.
	Logger zerolog.Logger

	sys      System
	children []*Child
}

// NewLauncher returns a launcher building channels on the given primitive
// layer, normally NewSystem().
func NewLauncher(sys System) *Launcher {
	return &Launcher{Logger: zerolog.Nop(), sys: sys}
}

// Launch starts exe with a freshly created channel bundle inherited into
// it and the bundle identities encoded on its command line, using the
// default slot size.
func (l *Launcher) Launch(exe string, extraArgs ...string) (*Child, error) {
	return l.LaunchWithConfig(exe, BundleConfig{Inheritable: true}, extraArgs...)
}

// LaunchWithConfig is Launch with an explicit bundle configuration.
//
// The call is transactional: any failure after partial resource
// acquisition closes everything acquired so far and leaves the child
// collection untouched. Failures are typed: *SysError when an OS call
// failed, *ChannelError when bundle or channel setup failed above the OS.
func (l *Launcher) LaunchWithConfig(exe string, cfg BundleConfig, extraArgs ...string) (*Child, error) {
	cfg.Inheritable = true
	bundle, err := CreateBundle(l.sys, cfg)
	if err != nil {
		l.Logger.Error().Err(err).Str("exe", exe).Msg("bundle creation failed")
		return nil, err
	}
	files, err := bundle.inheritFiles()
	if err != nil {
		bundle.Close()
		l.Logger.Error().Err(err).Str("exe", exe).Msg("descriptor setup failed")
		return nil, err
	}
	// The child gets duplicates so the parent's descriptors stay
	// registered with the runtime poller.
	dups, err := dupForInherit(files)
	if err != nil {
		bundle.Close()
		l.Logger.Error().Err(err).Str("exe", exe).Msg("descriptor setup failed")
		return nil, err
	}

	// The child runs with our environment and working directory; the only
	// channel bootstrap transport is the inherited descriptors plus the
	// argv token.
	cmd := exec.Command(exe)
	ids := setExtraFiles(cmd, dups)
	args := ChannelArgs{
		Exe:      exe,
		MemoryID: ids[0],
		LockID:   ids[1],
		ReadyID:  ids[2],
		AckID:    ids[3],
		Size:     cfg.size(),
	}
	cmd.Args = append(cmd.Args, args.Token())
	cmd.Args = append(cmd.Args, extraArgs...)

	err = cmd.Start()
	for _, d := range dups {
		d.Close()
	}
	if err != nil {
		bundle.Close()
		l.Logger.Error().Err(err).Str("exe", exe).Msg("process start failed")
		return nil, sysErr("start process", err)
	}

	child := &Child{
		ID:      uuid.New(),
		Cmd:     cmd,
		Channel: newChannel(bundle, true),
		log:     l.Logger,
	}
	setupSignalHandler(child)
	l.children = append(l.children, child)

	l.Logger.Debug().
		Str("exe", exe).
		Int("pid", cmd.Process.Pid).
		Str("child", child.ID.String()).
		Int("slot_size", cfg.size()).
		Msg("launched worker")

	return child, nil
}

// Children returns the launched children in launch order.
func (l *Launcher) Children() []*Child {
	out := make([]*Child, len(l.children))
	copy(out, l.children)
	return out
}

// Close terminates every child and releases every channel. The first error
// encountered is returned; cleanup continues regardless.
func (l *Launcher) Close() error {
	var first error
	for _, c := range l.children {
		if err := c.Terminate(); err != nil && first == nil {
			first = err
		}
		if err := c.Channel.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.children = nil
	return first
}

// Wait blocks until the child process exits.
func (c *Child) Wait() error {
	err := c.Cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
			return errors.New("child process was killed")
		}
		return err
	}
	return nil
}

// Terminate stops the child, asking politely first and killing it if it
// has not exited after five seconds. Returns nil if the process never
// started or already finished.
func (c *Child) Terminate() error {
	if c.Cmd.Process == nil || c.Cmd.ProcessState != nil {
		return nil
	}

	if err := terminateProcess(c.Cmd); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Cmd.Wait()
	}()

	select {
	case <-time.After(5 * time.Second):
		c.log.Warn().
			Int("pid", c.Cmd.Process.Pid).
			Str("child", c.ID.String()).
			Msg("child ignored termination request, killing")
		if err := c.Cmd.Process.Kill(); err != nil {
			return err
		}
		<-done
		return nil
	case err := <-done:
		return err
	}
}

func setupSignalHandler(c *Child) {
	signalChan := make(chan os.Signal, 1)
	setSignalsForChannel(signalChan)

	go func() {
		<-signalChan
		c.Terminate()
	}()
}
