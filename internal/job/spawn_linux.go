//go:build linux

package job

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/ubports/upstart/internal/trace"
)

// OSSpawner is the linux Spawner: it builds the process's argv/environment
// per §3/§4.4.2, applies chroot and chdir in the child before exec,
// resource limits through a shell ulimit wrapper, umask in the parent
// around the start and nice right after it (SPEC_FULL §C.4), and, when
// trace is requested, arranges
// for the child to stop under ptrace right at the exec boundary so the
// caller can hand it to internal/trace.
type OSSpawner struct {
	// LogDir, if set, is where ConsoleLog output is written
	// ("<LogDir>/<job>.log"); otherwise ConsoleLog behaves like
	// ConsoleNone.
	LogDir string
}

var _ Spawner = (*OSSpawner)(nil)

// Spawn implements Spawner.
func (s *OSSpawner) Spawn(j *Job, slot Slot, proc *Process, trace bool) (int, error) {
	argv := buildArgv(proc)
	if len(argv) == 0 {
		return 0, fmt.Errorf("job %s: empty command for slot %s", j.Config.Name, slot)
	}
	if wrapped := rlimitArgv(argv, j.Config.Env.RLimits); wrapped != nil {
		argv = wrapped
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = buildEnv(j)
	cmd.Dir = j.Config.Env.Chdir

	stdout, stderr, closeFn, err := consoleFiles(j.Config.Console, s.LogDir, j.Config.Name)
	if err != nil {
		return 0, fmt.Errorf("job %s: console setup: %w", j.Config.Name, err)
	}
	cmd.Stdout, cmd.Stderr = stdout, stderr

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
		Ptrace: trace,
	}
	if j.Config.Env.Chroot != "" {
		cmd.SysProcAttr.Chroot = j.Config.Env.Chroot
	}

	restoreUmask := applyUmask(j.Config.Env)
	err = cmd.Start()
	restoreUmask()
	if closeFn != nil {
		closeFn()
	}
	if err != nil {
		return 0, fmt.Errorf("job %s: spawn %s: %w", j.Config.Name, slot, err)
	}

	pid := cmd.Process.Pid

	if j.Config.Env.HasNice {
		// Applied after start: Go's exec provides no pre-exec hook, so
		// there is a brief window at default priority before this takes
		// effect (SPEC_FULL §C.4).
		_ = syscall.Setpriority(syscall.PRIO_PROCESS, pid, j.Config.Env.Nice)
	}

	if trace {
		var ws syscall.WaitStatus
		if _, werr := syscall.Wait4(pid, &ws, 0, nil); werr != nil {
			return pid, fmt.Errorf("job %s: waiting for initial ptrace stop: %w", j.Config.Name, werr)
		}
		if err := traceAttachOptions(pid); err != nil {
			return pid, err
		}
	}

	return pid, nil
}

func traceAttachOptions(pid int) error {
	if err := trace.SetOptions(pid); err != nil {
		return err
	}
	return trace.Continue(pid, 0)
}

func buildArgv(proc *Process) []string {
	if proc.Script {
		body := strings.Join(proc.Command, "\n")
		return []string{"/bin/sh", "-c", body}
	}
	return proc.Command
}

// buildEnv merges the job's current environment table with the ambient
// UPSTART_JOB/UPSTART_INSTANCE variables every spawned process receives.
func buildEnv(j *Job) []string {
	merged := j.Config.Env.DefaultEnv.Clone()
	merged.Append(j.Env, true)
	merged.Set("UPSTART_JOB", j.Config.Name)
	if j.Name != "" {
		merged.Set("UPSTART_INSTANCE", j.Name)
	}
	return merged.All()
}

// rlimitArgv wraps argv in a "sh -c" invocation applying `ulimit` before
// exec'ing the real command, since Go's exec.Cmd has no pre-exec hook for
// setrlimit (SPEC_FULL §C.4). It returns nil if there are no configured
// limits.
func rlimitArgv(argv []string, limits []RLimit) []string {
	if len(limits) == 0 {
		return nil
	}
	var b strings.Builder
	for _, rl := range limits {
		flag, ok := ulimitFlag(rl.Resource)
		if !ok {
			continue
		}
		b.WriteString("ulimit -S -" + flag + " " + limitValue(rl.Soft) + " 2>/dev/null; ")
		b.WriteString("ulimit -H -" + flag + " " + limitValue(rl.Hard) + " 2>/dev/null; ")
	}
	b.WriteString(`exec "$@"`)
	return append([]string{"/bin/sh", "-c", b.String(), "sh"}, argv...)
}

func limitValue(v uint64) string {
	if v == RLimitInfinity {
		return "unlimited"
	}
	return strconv.FormatUint(v, 10)
}

// RLimitInfinity marks an unbounded resource limit.
const RLimitInfinity = ^uint64(0)

func ulimitFlag(resource int) (string, bool) {
	switch resource {
	case syscall.RLIMIT_CORE:
		return "c", true
	case syscall.RLIMIT_CPU:
		return "t", true
	case syscall.RLIMIT_DATA:
		return "d", true
	case syscall.RLIMIT_FSIZE:
		return "f", true
	case syscall.RLIMIT_NOFILE:
		return "n", true
	case syscall.RLIMIT_STACK:
		return "s", true
	case syscall.RLIMIT_AS:
		return "v", true
	default:
		return "", false
	}
}

// applyUmask sets the process umask for the duration of the fork+exec
// call and returns a function that restores the previous value. Umask is
// process-wide in Linux, so the parent's value is only perturbed for the
// brief window between Umask and the restoring call (SPEC_FULL §C.4).
func applyUmask(env ProcessEnv) func() {
	if !env.HasUmask {
		return func() {}
	}
	old := syscall.Umask(env.Umask)
	return func() { syscall.Umask(old) }
}

func consoleFiles(mode Console, logDir, jobName string) (stdout, stderr *os.File, closeFn func(), err error) {
	switch mode {
	case ConsoleOutput, ConsoleOwner:
		return os.Stdout, os.Stderr, nil, nil
	case ConsoleLog:
		if logDir == "" {
			return nil, nil, nil, nil
		}
		f, err := os.OpenFile(logDir+"/"+jobName+".log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, nil, err
		}
		return f, f, func() { f.Close() }, nil
	default: // ConsoleNone
		devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return nil, nil, nil, err
		}
		return devnull, devnull, func() { devnull.Close() }, nil
	}
}
