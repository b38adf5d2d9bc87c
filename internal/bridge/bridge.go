// Package bridge manages the supervised assistant process: spawning,
// stream translation, and the serialized input channel used to answer
// interactive permission prompts.
package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentgate-ai/agentgate/internal/logging"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

// Sentinel errors for state-contract violations.
var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = errors.New("no active session")
	ErrQueueFull     = errors.New("input queue full")
)

// Approval tokens answering the most recent interactive permission prompt.
const (
	approveToken = "y\n"
	denyToken    = "n\n"
)

const (
	stdinQueueSize  = 100
	eventBufferSize = 256
	// Large outputs arrive as single lines.
	maxLineBytes = 1024 * 1024
)

// SpawnOptions describe the external process to supervise. Args must
// already include any protocol flags; the bridge runs the command verbatim.
type SpawnOptions struct {
	WorkingDir string
	Command    string
	Args       []string
}

// Bridge owns one child process and its three standard streams. At most one
// process is active per bridge instance.
type Bridge struct {
	mu              sync.RWMutex
	cmd             *exec.Cmd
	stdinCh         chan string
	events          chan types.Event
	stdinOnce       *sync.Once
	remoteSessionID string
	workingDir      string

	log zerolog.Logger
}

// New creates an idle bridge.
func New() *Bridge {
	return &Bridge{log: logging.For("bridge")}
}

// Spawn launches the external process with its input, output, and
// diagnostic streams captured, and starts the writer and reader tasks.
// It fails if a session is already active.
func (b *Bridge) Spawn(opts SpawnOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd != nil {
		return ErrSessionActive
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.WorkingDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to capture stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to capture stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to capture stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %s: %w", opts.Command, err)
	}

	stdinCh := make(chan string, stdinQueueSize)
	events := make(chan types.Event, eventBufferSize)
	stdinOnce := &sync.Once{}

	b.cmd = cmd
	b.stdinCh = stdinCh
	b.events = events
	b.stdinOnce = stdinOnce
	b.workingDir = opts.WorkingDir
	b.remoteSessionID = ""

	go b.writeInput(stdin, stdinCh)

	var readers sync.WaitGroup
	readers.Add(2)
	go b.readPrimary(stdout, events, &readers)
	go b.readDiagnostic(stderr, events, &readers)

	// Reap the process and close the event stream once both readers hit EOF.
	go func() {
		readers.Wait()
		if err := cmd.Wait(); err != nil {
			b.log.Debug().Err(err).Msg("process exited")
		}
		b.finish(cmd, stdinCh, stdinOnce)
		close(events)
	}()

	b.log.Info().Str("dir", opts.WorkingDir).Str("command", opts.Command).Msg("process spawned")
	return nil
}

// writeInput drains the input queue into the process's stdin. The single
// writer serializes all writes so concurrent callers never interleave.
func (b *Bridge) writeInput(stdin io.WriteCloser, ch <-chan string) {
	defer stdin.Close()
	for input := range ch {
		if _, err := io.WriteString(stdin, input); err != nil {
			b.log.Error().Err(err).Msg("failed to write to stdin")
			return
		}
	}
}

// readPrimary translates primary-output lines into events in arrival order.
func (b *Bridge) readPrimary(r io.Reader, events chan<- types.Event, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineBytes), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		ev := translateLine(line)
		if ev.Kind == types.EventAssistant {
			if sid := ev.Payload.Field("session_id").Str(); sid != "" {
				b.setRemoteSessionID(sid)
			}
		}
		events <- ev
	}

	if err := scanner.Err(); err != nil {
		b.log.Error().Err(err).Msg("error reading primary output")
	}
}

// readDiagnostic forwards diagnostic-stream lines as stderr events.
func (b *Bridge) readDiagnostic(r io.Reader, events chan<- types.Event, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineBytes), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		events <- stderrEvent(line)
	}
}

// finish clears the bridge state if it still belongs to this spawn.
func (b *Bridge) finish(cmd *exec.Cmd, stdinCh chan string, once *sync.Once) {
	b.mu.Lock()
	defer b.mu.Unlock()

	once.Do(func() { close(stdinCh) })
	if b.cmd == cmd {
		b.cmd = nil
		b.stdinCh = nil
		b.remoteSessionID = ""
	}
}

// Events returns the current event stream. The channel closes when the
// process exits and both output streams are drained.
func (b *Bridge) Events() <-chan types.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events
}

// Write enqueues text to be written verbatim to the process's input
// stream. It fails if no session is active or the input queue is full.
// The read lock is held across the send: Stop and finish close the queue
// under the write lock, so the channel cannot close mid-send. The send
// itself never blocks.
func (b *Bridge) Write(input string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stdinCh == nil {
		return ErrNoSession
	}

	select {
	case b.stdinCh <- input:
		return nil
	default:
		return ErrQueueFull
	}
}

// Approve answers the most recent interactive permission prompt
// affirmatively.
func (b *Bridge) Approve() error {
	return b.Write(approveToken)
}

// Deny answers the most recent interactive permission prompt negatively.
func (b *Bridge) Deny() error {
	return b.Write(denyToken)
}

// Stop forcibly terminates the child process and releases the input
// channel. It is a no-op with no active session.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return nil
	}

	if err := b.cmd.Process.Kill(); err != nil {
		b.log.Debug().Err(err).Msg("kill failed; process likely already exited")
	}

	b.stdinOnce.Do(func() { close(b.stdinCh) })
	b.cmd = nil
	b.stdinCh = nil
	b.remoteSessionID = ""

	b.log.Info().Msg("process stopped")
	return nil
}

// Active reports whether a child process is running.
func (b *Bridge) Active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cmd != nil
}

// RemoteSessionID returns the session id reported by the process, if any.
func (b *Bridge) RemoteSessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.remoteSessionID
}

// WorkingDir returns the working directory of the active session.
func (b *Bridge) WorkingDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.workingDir
}

func (b *Bridge) setRemoteSessionID(id string) {
	b.mu.Lock()
	b.remoteSessionID = id
	b.mu.Unlock()
}
