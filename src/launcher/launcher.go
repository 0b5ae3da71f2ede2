package launcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"portfolio-runner/src/bootstrap"
	"portfolio-runner/src/helpers"
	"portfolio-runner/src/interfaces"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
	"portfolio-runner/src/utils"
)

// -----------------------------------------------------------------------------

// Grace period between SIGTERM and SIGKILL on shutdown/restart
const stopGracePeriod = 5 * time.Second

// -----------------------------------------------------------------------------
// Launcher - starts and supervises the dev web server process
// -----------------------------------------------------------------------------

type Launcher struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Journal   interfaces.IJournal
	Exchanger interfaces.IStatusExchanger
	Ring      *utils.LogRing

	mu        sync.Mutex
	cmd       *exec.Cmd
	runID     int64
	status    models.MProcessStatus
	restartCh chan string
}

// -----------------------------------------------------------------------------

func NewLauncher(cfg *models.MConfig, log *logger.Logger, journal interfaces.IJournal, exchanger interfaces.IStatusExchanger, ring *utils.LogRing) *Launcher {
	return &Launcher{
		Config:    cfg,
		Logger:    log,
		Journal:   journal,
		Exchanger: exchanger,
		Ring:      ring,
		status:    models.MProcessStatus{State: models.StateStopped},
		restartCh: make(chan string, 1),
	}
}

// -----------------------------------------------------------------------------

// Status returns a copy of the current process snapshot
func (l *Launcher) Status() models.MProcessStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// -----------------------------------------------------------------------------

// Restart asks the supervision loop to relaunch the child.
// Non-blocking; a restart already in flight absorbs the request.
func (l *Launcher) Restart(reason string) error {
	select {
	case l.restartCh <- reason:
		return nil
	default:
		return fmt.Errorf("restart already pending")
	}
}

// -----------------------------------------------------------------------------

// Run starts the child and supervises it until ctx is cancelled. Unexpected
// exits are relaunched per the restart policy; requested restarts (manual or
// watch-triggered) do not count against it.
func (l *Launcher) Run(ctx context.Context, wg *sync.WaitGroup) error {
	wg.Add(1)

	go func() {
		defer wg.Done()
		l.supervise(ctx)
	}()

	return nil
}

// -----------------------------------------------------------------------------

func (l *Launcher) supervise(ctx context.Context) {
	crashes := 0

	for {
		exitCh, err := l.startChild(ctx)
		if err != nil {
			l.Logger.Error("Failed to launch app: %v", err)
			l.setState(func(s *models.MProcessStatus) {
				s.State = models.StateCrashed
				s.LastExit = err.Error()
				s.LastExitAt = time.Now().Unix()
			})
			l.recordEvent(models.EventError, fmt.Sprintf("launch failed: %v", err))

			crashes++
			if l.gaveUp(crashes) {
				return
			}
			if !l.sleepOrDone(ctx) {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.stopChild("shutdown")
			<-exitCh
			l.closeRun("shutdown")
			l.setState(func(s *models.MProcessStatus) {
				s.State = models.StateStopped
			})
			return

		case reason := <-l.restartCh:
			l.Logger.Info("Restarting app: %s", reason)
			l.recordEvent(models.EventRestart, reason)
			l.stopChild(reason)
			<-exitCh
			l.closeRun("restart: " + reason)
			l.setState(func(s *models.MProcessStatus) {
				s.Restarts++
				s.LastRestart = reason
			})
			// A requested restart resets the crash count
			crashes = 0

		case exitErr := <-exitCh:
			detail := "exited cleanly"
			if exitErr != nil {
				detail = exitErr.Error()
			}
			l.closeRun(detail)
			l.Logger.Warning("App exited unexpectedly: %s", detail)
			l.setState(func(s *models.MProcessStatus) {
				s.State = models.StateCrashed
				s.LastExit = detail
				s.LastExitAt = time.Now().Unix()
			})
			l.recordEvent(models.EventExit, detail)

			crashes++
			if l.gaveUp(crashes) {
				return
			}
			l.setState(func(s *models.MProcessStatus) {
				s.Restarts++
				s.LastRestart = "crash recovery"
			})
			if !l.sleepOrDone(ctx) {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// gaveUp applies the restart policy. MaxRestarts of 0 means retry forever.
func (l *Launcher) gaveUp(crashes int) bool {
	max := l.Config.App.MaxRestarts
	if max <= 0 || crashes <= max {
		return false
	}

	l.Logger.Error("App crashed %d times, giving up", crashes)
	l.setState(func(s *models.MProcessStatus) {
		s.State = models.StateGivenUp
	})
	l.recordEvent(models.EventError, fmt.Sprintf("gave up after %d crashes", crashes))
	return true
}

// -----------------------------------------------------------------------------

func (l *Launcher) sleepOrDone(ctx context.Context) bool {
	delay := time.Duration(l.Config.App.RestartDelay) * time.Second
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// -----------------------------------------------------------------------------

// startChild launches the dev server process and wires its output streams.
// The returned channel delivers the Wait result exactly once.
func (l *Launcher) startChild(ctx context.Context) (chan error, error) {
	env, err := BuildChildEnv(l.Config)
	if err != nil {
		return nil, err
	}

	python := bootstrap.VenvPython(bootstrap.ResolvePath(l.Config.App.WorkDir, l.Config.Bootstrap.VenvDir))

	args := append([]string{l.Config.App.Entrypoint}, l.Config.App.ExtraArgs...)

	cmd := exec.Command(python, args...)
	cmd.Dir = l.Config.App.WorkDir
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	l.setState(func(s *models.MProcessStatus) {
		s.State = models.StateStarting
	})

	if err := cmd.Start(); err != nil {
		return nil, &helpers.ProcessError{RunnerError: helpers.RunnerError{
			Message: fmt.Sprintf("failed to start %s %s", python, l.Config.App.Entrypoint),
			Cause:   err,
		}}
	}

	l.mu.Lock()
	l.cmd = cmd
	l.mu.Unlock()

	l.setState(func(s *models.MProcessStatus) {
		s.State = models.StateRunning
		s.PID = cmd.Process.Pid
		s.StartedAt = time.Now().Unix()
	})
	l.recordEvent(models.EventStart, fmt.Sprintf("started pid %d", cmd.Process.Pid))
	l.openRun(cmd.Process.Pid)
	l.Logger.Info("App started (pid %d)", cmd.Process.Pid)

	// Pump both streams; Wait only after the pipes are drained
	var pumpWg sync.WaitGroup
	pumpWg.Add(2)
	go l.pumpStream("stdout", stdout, &pumpWg)
	go l.pumpStream("stderr", stderr, &pumpWg)

	exitCh := make(chan error, 1)
	go func() {
		pumpWg.Wait()
		exitCh <- cmd.Wait()
	}()

	return exitCh, nil
}

// -----------------------------------------------------------------------------

func (l *Launcher) pumpStream(stream string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := models.MLogLine{
			Stream:    stream,
			Text:      scanner.Text(),
			Timestamp: time.Now().Unix(),
		}
		if l.Ring != nil {
			l.Ring.Append(line)
		}
		if l.Exchanger != nil {
			l.Exchanger.PublishLog(line)
		}
		l.Logger.Debug("app %s: %s", stream, line.Text)
	}
}

// -----------------------------------------------------------------------------

// stopChild terminates the current child: SIGTERM, then SIGKILL after the
// grace period. Safe to call when no child is running.
func (l *Launcher) stopChild(reason string) {
	l.mu.Lock()
	cmd := l.cmd
	l.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	l.Logger.Info("Stopping app (pid %d): %s", cmd.Process.Pid, reason)

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone
		return
	}

	done := make(chan struct{})
	go func() {
		for {
			// Signal 0 probes for liveness
			if cmd.Process.Signal(syscall.Signal(0)) != nil {
				close(done)
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		l.Logger.Warning("App did not stop in %v, killing", stopGracePeriod)
		cmd.Process.Kill()
	}
}

// -----------------------------------------------------------------------------

// setState mutates the snapshot under lock and publishes the new status
func (l *Launcher) setState(mutate func(*models.MProcessStatus)) {
	l.mu.Lock()
	mutate(&l.status)
	status := l.status
	l.mu.Unlock()

	if l.Exchanger != nil {
		l.Exchanger.PublishStatus(status)
	}
}

// -----------------------------------------------------------------------------

func (l *Launcher) recordEvent(kind, detail string) {
	if l.Journal == nil {
		return
	}
	if err := l.Journal.RecordEvent(kind, detail); err != nil {
		l.Logger.Warning("Failed to record journal event: %v", err)
	}
}

// -----------------------------------------------------------------------------

// openRun opens a journal run row for the child that just started
func (l *Launcher) openRun(pid int) {
	if l.Journal == nil {
		return
	}

	id, err := l.Journal.RecordRunStart(pid)
	if err != nil {
		l.Logger.Warning("Failed to record run start: %v", err)
		return
	}

	l.mu.Lock()
	l.runID = id
	l.mu.Unlock()
}

// -----------------------------------------------------------------------------

// closeRun closes the current run row with the exit detail. Safe to call
// when no row is open.
func (l *Launcher) closeRun(detail string) {
	l.mu.Lock()
	id := l.runID
	l.runID = 0
	l.mu.Unlock()

	if l.Journal == nil || id == 0 {
		return
	}
	if err := l.Journal.RecordRunEnd(id, detail); err != nil {
		l.Logger.Warning("Failed to record run end: %v", err)
	}
}
