package alert

import (
	"context"
	log "log/slog"
	"time"

	"shealert/internal/alertlog"
	"shealert/internal/camera"
	"shealert/internal/contacts"
	"shealert/internal/location"
)

type Camera interface {
	Capture(ctx context.Context, name string) (string, error)
}

type Locator interface {
	Resolve(ctx context.Context) location.Fix
}

type Log interface {
	AppendNow(image, location string, now func() time.Time) (alertlog.Record, error)
}

type Directory interface {
	List() ([]contacts.Contact, error)
}

type Dispatcher interface {
	Dispatch(msg string, cs []contacts.Contact) int
}

type Outcome struct {
	Timestamp string `json:"timestamp"`
	Captured  bool   `json:"captured"`
	Image     string `json:"image,omitempty"`
	Address   string `json:"address"`
	Notified  int    `json:"notified"`
}

type Deps struct {
	Camera     Camera
	Locator    Locator
	Log        Log
	Directory  Directory
	Dispatcher Dispatcher
	Now        func() time.Time
}

type Trigger struct {
	Deps
	observers []func(Outcome)
}

func NewTrigger(deps Deps) *Trigger {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Trigger{Deps: deps}
}

// OnFired registers f to be called with every outcome, after the alert is done.
func (t *Trigger) OnFired(f func(Outcome)) {
	t.observers = append(t.observers, f)
}

// Fire runs capture, geolocate, persist and notify in that order. No step is
// retried and no failure stops the later steps.
func (t *Trigger) Fire(ctx context.Context) Outcome {
	image := ""
	if t.Camera != nil {
		path, err := t.Camera.Capture(ctx, camera.FileName(t.Now()))
		if err != nil {
			log.Warn("Photo capture failed, continuing without image", "err", err)
		} else {
			image = path
		}
	}

	fix := t.Locator.Resolve(ctx)

	// the record is stamped under the log lock; message and outcome reuse that stamp
	rec, err := t.Log.AppendNow(image, fix.Address, t.Now)
	if err != nil {
		log.Error("Failed to log alert", "err", err)
	} else {
		log.Info("Alert logged", "time", rec.Timestamp, "location", fix.Address)
	}
	ts := rec.Timestamp
	if ts == "" {
		ts = t.Now().Format(alertlog.TimeLayout)
	}

	cs, err := t.Directory.List()
	if err != nil {
		log.Error("Failed to read contacts", "err", err)
		cs = nil
	}
	n := t.Dispatcher.Dispatch(Message(ts, fix), cs)

	out := Outcome{
		Timestamp: ts,
		Captured:  image != "",
		Image:     image,
		Address:   fix.Address,
		Notified:  n,
	}

	for _, f := range t.observers {
		f(out)
	}

	return out
}
