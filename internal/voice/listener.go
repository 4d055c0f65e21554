package voice

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync"

	"shealert/internal/alert"
	"shealert/pkg/audioconv"
)

const Keyword = "help"

type State int32

const (
	Idle State = iota
	Listening
	Matched
	NotMatched
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Matched:
		return "matched"
	case NotMatched:
		return "not-matched"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Recorder interface {
	Listen(ctx context.Context) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

type Trigger interface {
	Fire(ctx context.Context) alert.Outcome
}

type Result struct {
	State      State
	Transcript string
	Outcome    *alert.Outcome
	Err        error
}

type Listener struct {
	rec     Recorder
	stt     Transcriber
	trigger Trigger
	cue     func()

	mu     sync.Mutex
	state  State
	active int
}

func NewListener(rec Recorder, stt Transcriber, trigger Trigger) *Listener {
	return &Listener{rec: rec, stt: stt, trigger: trigger}
}

// OnListen sets a function run just before capture starts (an audible cue).
func (l *Listener) OnListen(f func()) {
	l.cue = f
}

// State is the state of the most recent activation.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start runs one listen-transcribe-decide cycle on its own goroutine. The
// returned channel receives exactly one Result and is then closed.
func (l *Listener) Start(ctx context.Context) <-chan Result {
	return l.spawn(ctx, func(ctx context.Context) ([]float32, error) {
		if l.cue != nil {
			l.cue()
		}
		log.Info("Listening for keyword", "keyword", Keyword)
		return l.rec.Listen(ctx)
	})
}

// StartFile runs the same cycle on a recorded voice note instead of the microphone.
func (l *Listener) StartFile(ctx context.Context, path string) <-chan Result {
	return l.spawn(ctx, func(context.Context) ([]float32, error) {
		log.Info("Checking voice note for keyword", "path", path, "keyword", Keyword)
		return audioconv.DecodeFile(path, 0)
	})
}

func (l *Listener) spawn(ctx context.Context, capture func(context.Context) ([]float32, error)) <-chan Result {
	out := make(chan Result, 1)
	l.begin()

	go func() {
		defer close(out)
		res := l.cycle(ctx, capture)

		l.finish()
		out <- res
	}()

	return out
}

func (l *Listener) cycle(ctx context.Context, capture func(context.Context) ([]float32, error)) Result {
	pcm, err := capture(ctx)
	if err != nil {
		log.Error("Listening failed", "err", err)
		return Result{State: Failed, Err: fmt.Errorf("capture: %w", err)}
	}

	text, err := l.stt.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Speech recognition failed", "err", err)
		return Result{State: Failed, Err: fmt.Errorf("transcribe: %w", err)}
	}
	log.Info("Transcribed", "text", text)

	if !Contains(text) {
		log.Info("Keyword not detected", "keyword", Keyword)
		return Result{State: NotMatched, Transcript: text}
	}

	log.Warn("Keyword detected, triggering alert", "keyword", Keyword)
	out := l.trigger.Fire(ctx)
	return Result{State: Matched, Transcript: text, Outcome: &out}
}

func (l *Listener) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active++
	l.state = Listening
}

// finish ends one activation. The listener only drops back
// to Idle once no other activation is still running.
func (l *Listener) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
	if l.active > 0 {
		return
	}
	l.state = Idle
}

// Contains reports whether transcript holds the keyword, case-insensitively.
func Contains(transcript string) bool {
	return strings.Contains(strings.ToLower(transcript), Keyword)
}
