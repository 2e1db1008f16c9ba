package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/shared"
)

// Options configures a [Launcher].
type Options struct {
	BaseDir   string        // fixed project directory; empty means the executable's directory
	EnvDir    string        // runtime environment, relative to BaseDir; empty disables activation
	Program   string        // program to run with no arguments
	LogFile   string        // combined output log, relative to BaseDir
	LockFile  string        // single-instance lock, relative to BaseDir; empty disables locking
	KillDelay time.Duration // grace period between SIGTERM and SIGKILL on cancellation
	Logger    *log.Logger

	// Executable reports the running binary's path. Defaults to [os.Executable].
	Executable func() (string, error)
	// Environ is the environment handed to the program before activation. Defaults to [os.Environ].
	Environ func() []string
}

// Result describes one launch.
type Result struct {
	BaseDir  string
	LogPath  string
	Program  string
	ExitCode int
	Started  time.Time
	Duration time.Duration
}

// Launcher prepares the project directory and runs the sync program.
type Launcher struct {
	opts   Options
	logger *log.Logger
}

// New creates a Launcher, filling unset options with defaults.
func New(opts Options) *Launcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Executable == nil {
		opts.Executable = os.Executable
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.LogFile == "" {
		opts.LogFile = "sync.log"
	}
	if opts.KillDelay <= 0 {
		opts.KillDelay = 10 * time.Second
	}

	return &Launcher{opts: opts, logger: shared.WithLogger(opts.Logger, "component", "launcher")}
}

// FromConfig creates a Launcher from the [launcher] config section.
func FromConfig(cfg shared.LauncherConfig, logger *log.Logger) *Launcher {
	return New(Options{
		BaseDir:   cfg.BaseDir,
		EnvDir:    cfg.EnvDir,
		Program:   cfg.Program,
		LogFile:   cfg.LogFile,
		LockFile:  cfg.LockFile,
		KillDelay: cfg.KillDelay(),
		Logger:    logger,
	})
}

// ResolveBaseDir returns the configured base directory, or the directory holding the running executable.
func (l *Launcher) ResolveBaseDir() (string, error) {
	if l.opts.BaseDir != "" {
		return filepath.Abs(l.opts.BaseDir)
	}

	exe, err := l.opts.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Run performs one launch. The returned error is always an [*ExitError] when non-nil.
//
// The Result is non-nil once the program has been started.
func (l *Launcher) Run(ctx context.Context) (*Result, error) {
	base, err := l.ResolveBaseDir()
	if err != nil {
		return nil, exitErr(ExitDirectory, ErrDirectory, "%v", err)
	}

	if err := os.Chdir(base); err != nil {
		return nil, exitErr(ExitDirectory, ErrDirectory, "%v", err)
	}
	l.logger.Debug("entered base directory", "dir", base)

	env, err := ActivateEnvironment(base, l.opts.EnvDir)
	if err != nil {
		return nil, &ExitError{Code: ExitEnvironment, Err: err}
	}
	if env != nil {
		l.logger.Debug("activated environment", "dir", env.Dir)
	}

	if l.opts.Program == "" {
		return nil, exitErr(ExitNotFound, ErrProgram, "no program configured")
	}

	if l.opts.LockFile != "" {
		lock, err := TryLock(l.resolve(base, l.opts.LockFile))
		if err != nil {
			return nil, &ExitError{Code: ExitLocked, Err: err}
		}
		defer lock.Unlock()
	}

	logPath := l.resolve(base, l.opts.LogFile)
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, exitErr(ExitLogFile, ErrLogFile, "%v", err)
	}
	defer logFile.Close()

	program := env.LookPath(base, l.opts.Program)
	result := &Result{BaseDir: base, LogPath: logPath, Program: program, Started: time.Now()}

	cmd := exec.CommandContext(ctx, program)
	cmd.Dir = base
	cmd.Env = env.Apply(l.opts.Environ())
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = l.opts.KillDelay

	l.logger.Info("starting program", "program", program, "log", logPath)
	runErr := cmd.Run()
	result.Duration = time.Since(result.Started)
	result.ExitCode = l.status(cmd, runErr, logFile)

	l.logger.Info("program finished", "status", result.ExitCode, "duration", result.Duration.Round(time.Millisecond))

	if result.ExitCode != ExitOK {
		return result, exitErr(result.ExitCode, ErrProgram, "%s: %v", l.opts.Program, runErr)
	}
	return result, nil
}

func (l *Launcher) resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// status maps the outcome of cmd.Run to a shell-style exit status.
//
// A child that ran is judged by its own wait status, even when cancellation made cmd.Run return
// the context error. Start failures are written to the log, since a shell reports them on the
// redirected stderr.
func (l *Launcher) status(cmd *exec.Cmd, err error, logFile *os.File) int {
	if ps := cmd.ProcessState; ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return ps.ExitCode()
	}

	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 128 + int(syscall.SIGTERM)
	}

	fmt.Fprintf(logFile, "ymsync: %s: %v\n", l.opts.Program, err)

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return ExitNotFound
	}
	return ExitNotExec
}
