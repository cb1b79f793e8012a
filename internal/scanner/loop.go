// Package scanner runs the periodic capture, recognize and mark pipeline.
//
// The Loop is an actor: a single goroutine owns the loop state and receives
// ticks, control commands and cycle results over channels. At most one cycle
// runs at a time; ticks arriving while a cycle is in flight are dropped.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/backend"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/detector"
	"github.com/kozaktomas/rollcall/internal/facematch"
)

// Recognize input modes.
const (
	InputAligned = "aligned"
	InputFrame   = "frame"
)

// GuardOwner is the camera guard owner name used while the loop is armed.
const GuardOwner = "scanner"

var (
	// ErrUnknownLecture is returned when a session names a lecture missing
	// from the catalogue.
	ErrUnknownLecture = errors.New("unknown lecture")

	// ErrStopped is returned by control calls after Run has exited.
	ErrStopped = errors.New("scan loop is not running")
)

// Config wires the loop to its collaborators. Source, Locator, Recognizer
// and Marker are required.
type Config struct {
	Source         camera.Source
	Locator        detector.Locator
	Normalizer     *facematch.Normalizer
	Recognizer     backend.Recognizer
	Marker         backend.Marker
	Gate           *attendance.DebounceGate
	Guard          *camera.Guard // optional in-process camera ownership
	Interval       time.Duration
	PrimaryFace    string
	RecognizeInput string
	HasLecture     func(code string) bool // optional catalogue check
	NewTicker      TickerFunc
	Logger         *slog.Logger
	Now            func() time.Time
}

type commandKind int

const (
	cmdSelectSession commandKind = iota
	cmdPause
	cmdResume
)

type command struct {
	kind    commandKind
	session attendance.Session
	reply   chan error
}

type cycleResult struct {
	gen   uint64
	event *Event // nil when the source had no frame
}

// Loop is the scan loop.
type Loop struct {
	cfg     Config
	logger  *slog.Logger
	events  *Broadcaster
	history *History

	cmds    chan command
	results chan cycleResult
	done    chan struct{}
	running atomic.Bool
	live    atomic.Uint64 // generation cycles may still act on

	statusMu sync.RWMutex
	status   Status

	// Owned by the Run goroutine.
	session     attendance.Session
	paused      bool
	gen         uint64
	inFlight    bool
	inFlightGen uint64
	cancelCycle context.CancelFunc
	ticker      Ticker
	release     func()
	cycles      uint64
	counters    Status
}

// New creates a loop in the Idle state.
func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultScanInterval
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = facematch.NewNormalizer(constants.FaceSize)
	}
	if cfg.Gate == nil {
		cfg.Gate = attendance.NewDebounceGate(constants.DefaultDebounceWindow)
	}
	if cfg.PrimaryFace == "" {
		cfg.PrimaryFace = facematch.PrimaryFirst
	}
	if cfg.RecognizeInput == "" {
		cfg.RecognizeInput = InputAligned
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	l := &Loop{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "scanner"),
		events:  &Broadcaster{},
		history: &History{},
		cmds:    make(chan command),
		results: make(chan cycleResult, 1),
		done:    make(chan struct{}),
		session: attendance.Session{Lecture: constants.NoLecture, Slot: constants.DefaultSlot},
	}
	l.publishStatus()
	return l
}

// Events returns the broadcaster scan events are published on.
func (l *Loop) Events() *Broadcaster { return l.events }

// History returns the scan history.
func (l *Loop) History() *History { return l.history }

// Status returns the latest state snapshot.
func (l *Loop) Status() Status {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.status
}

// SelectSession sets the lecture and slot. An active lecture arms the loop
// and clears a pause; "None" or an empty lecture forces Idle.
func (l *Loop) SelectSession(ctx context.Context, s attendance.Session) error {
	return l.send(ctx, command{kind: cmdSelectSession, session: s})
}

// Pause stops the ticker. A cycle in flight finishes but its result is discarded.
func (l *Loop) Pause(ctx context.Context) error {
	return l.send(ctx, command{kind: cmdPause})
}

// Resume restarts the ticker when a session is selected.
func (l *Loop) Resume(ctx context.Context) error {
	return l.send(ctx, command{kind: cmdResume})
}

func (l *Loop) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-l.done:
		return ErrStopped
	}
}

// Run owns the loop until ctx is cancelled. It may be called once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("scan loop already running")
	}
	defer close(l.done)
	defer l.shutdown()

	l.logger.Info("scan loop started", "interval", l.cfg.Interval, "primary_face", l.cfg.PrimaryFace, "input", l.cfg.RecognizeInput)

	for {
		var tick <-chan time.Time
		if l.ticker != nil {
			tick = l.ticker.C()
		}

		select {
		case <-ctx.Done():
			return nil
		case cmd := <-l.cmds:
			cmd.reply <- l.handle(cmd)
		case <-tick:
			l.onTick(ctx)
		case res := <-l.results:
			l.onResult(res)
		}
		l.publishStatus()
	}
}

func (l *Loop) shutdown() {
	l.disarm()
	if l.cancelCycle != nil {
		l.cancelCycle()
		l.cancelCycle = nil
	}
	l.publishStatus()
	l.events.Close()
	l.logger.Info("scan loop stopped", "completed", l.counters.Completed, "skipped", l.counters.Skipped)
}

func (l *Loop) handle(cmd command) error {
	switch cmd.kind {
	case cmdSelectSession:
		return l.selectSession(cmd.session)
	case cmdPause:
		if !l.paused {
			l.paused = true
			l.disarm()
			l.logger.Info("scanning paused")
		}
		return nil
	case cmdResume:
		if !l.paused {
			return nil
		}
		if l.session.Active() {
			if err := l.arm(); err != nil {
				return err
			}
		}
		l.paused = false
		l.logger.Info("scanning resumed", "lecture", l.session.Lecture)
		return nil
	}
	return fmt.Errorf("unknown command %d", cmd.kind)
}

func (l *Loop) selectSession(s attendance.Session) error {
	s = s.WithDefaults()

	if !s.Active() {
		l.disarm()
		l.session = attendance.Session{Lecture: constants.NoLecture, Slot: s.Slot}
		l.logger.Info("session cleared, scanner idle")
		return nil
	}

	if l.cfg.HasLecture != nil && !l.cfg.HasLecture(s.Lecture) {
		return fmt.Errorf("%w: %s", ErrUnknownLecture, s.Lecture)
	}

	if err := l.arm(); err != nil {
		return err
	}
	if s != l.session {
		l.invalidate()
		l.cfg.Gate.Reset()
	}
	l.session = s
	l.paused = false
	l.logger.Info("session selected", "lecture", s.Lecture, "slot", s.Slot)
	return nil
}

// arm takes the camera and starts the ticker. It is a no-op when armed.
func (l *Loop) arm() error {
	if l.ticker != nil {
		return nil
	}
	if l.cfg.Guard != nil && l.release == nil {
		release, err := l.cfg.Guard.Acquire(GuardOwner)
		if err != nil {
			return err
		}
		l.release = release
	}
	l.ticker = l.cfg.NewTicker(l.cfg.Interval)
	return nil
}

// disarm stops the ticker, releases the camera and invalidates any cycle in flight.
func (l *Loop) disarm() {
	l.invalidate()
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	if l.release != nil {
		l.release()
		l.release = nil
	}
}

// invalidate bumps the generation so results of the running cycle are
// discarded. Requests already sent are left to complete.
func (l *Loop) invalidate() {
	l.gen++
	l.live.Store(l.gen)
}

// stale reports whether a cycle started in generation gen has been
// invalidated by a pause or a session change.
func (l *Loop) stale(gen uint64) bool {
	return l.live.Load() != gen
}

func (l *Loop) onTick(ctx context.Context) {
	if l.ticker == nil {
		return
	}
	if l.inFlight {
		l.counters.Skipped++
		l.logger.Debug("tick skipped, cycle in flight")
		return
	}

	l.cycles++
	cycleCtx, cancel := context.WithCancel(ctx)
	l.cancelCycle = cancel
	l.inFlight = true
	l.inFlightGen = l.gen

	id, gen, session := l.cycles, l.gen, l.session
	go func() {
		event := l.runCycle(cycleCtx, id, gen, session)
		l.results <- cycleResult{gen: gen, event: event}
	}()
}

func (l *Loop) onResult(res cycleResult) {
	l.inFlight = false
	if l.cancelCycle != nil {
		l.cancelCycle()
		l.cancelCycle = nil
	}

	if res.gen != l.gen || l.ticker == nil {
		l.counters.Discarded++
		l.logger.Debug("cycle result discarded", "generation", res.gen)
		return
	}
	if res.event == nil {
		l.counters.NoFrame++
		return
	}

	event := *res.event
	l.counters.Completed++
	l.counters.Banner, l.counters.Message = describe(event)
	l.counters.LastEvent = &event
	l.history.Record(event)
	l.logEvent(event)
	if missed := l.events.SendEvent(event); missed > 0 {
		l.counters.Dropped += uint64(missed)
		l.logger.Warn("event listeners missed a scan event", "event", event.ID, "kind", event.Kind, "listeners", missed)
	}
}

func (l *Loop) state() State {
	switch {
	case l.inFlight && l.inFlightGen == l.gen:
		return StateCycleInFlight
	case l.ticker != nil:
		return StateArmed
	default:
		return StateIdle
	}
}

func (l *Loop) publishStatus() {
	s := l.counters
	s.State = l.state()
	s.Session = l.session
	s.Paused = l.paused
	if s.Banner == "" {
		s.Banner = BannerIdle
	}

	l.statusMu.Lock()
	l.status = s
	l.statusMu.Unlock()
}

func (l *Loop) logEvent(e Event) {
	attrs := []any{"cycle", e.Cycle, "kind", e.Kind, "faces", e.Faces}
	if e.Result.Known() {
		attrs = append(attrs, "rollNo", e.Result.Identity.PersonID, "confidence", e.Result.Confidence)
	}
	switch e.Kind {
	case EventError:
		l.logger.Warn("scan cycle failed", append(attrs, "stage", e.Stage, "error", e.Error)...)
	case EventMark:
		attrs = append(attrs, "outcome", e.Mark.Outcome, "message", e.Mark.ServerMessage)
		if e.Mark.Reason != "" {
			attrs = append(attrs, "reason", e.Mark.Reason)
		}
		l.logger.Info("attendance mark", attrs...)
	default:
		l.logger.Debug("scan cycle", attrs...)
	}
}
