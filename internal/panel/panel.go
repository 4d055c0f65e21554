package panel

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/skip2/go-qrcode"

	"shealert/internal/alert"
	"shealert/internal/ipc"
	"shealert/internal/location"
	"shealert/internal/voice"
)

const (
	CmdAlert   = "alert"
	CmdVoice   = "voice"
	CmdRefresh = "refresh"
	CmdStatus  = "status"
	CmdHistory = "history"

	NoHistory = "No alerts logged yet."
)

type Trigger interface {
	Fire(ctx context.Context) alert.Outcome
}

type Listener interface {
	Start(ctx context.Context) <-chan voice.Result
	StartFile(ctx context.Context, path string) <-chan voice.Result
}

type Locator interface {
	Current(ctx context.Context) location.Fix
	Refresh()
}

type History interface {
	Raw() (string, error)
}

// Panel is the control surface behind the daemon socket.
type Panel struct {
	ctx      context.Context
	trigger  Trigger
	listener Listener
	locator  Locator
	history  History

	onVoice []func(voice.Result)
}

func New(ctx context.Context, trigger Trigger, listener Listener, locator Locator, history History) *Panel {
	return &Panel{
		ctx:      ctx,
		trigger:  trigger,
		listener: listener,
		locator:  locator,
		history:  history,
	}
}

// OnVoiceResult registers f to receive the result of every voice activation.
func (p *Panel) OnVoiceResult(f func(voice.Result)) {
	p.onVoice = append(p.onVoice, f)
}

func (p *Panel) Handle(req ipc.Request) ipc.Reply {
	switch req.Cmd {
	case CmdAlert:
		return ok(AlertSummary(p.trigger.Fire(p.ctx)))
	case CmdVoice:
		return p.voice(req.Arg)
	case CmdRefresh:
		p.locator.Refresh()
		return ok("📍 Location refreshed!")
	case CmdStatus:
		return ok(Status(p.locator.Current(p.ctx)))
	case CmdHistory:
		return p.showHistory()
	default:
		log.Warn("Unknown command", "cmd", req.Cmd)
		return ipc.Reply{OK: false, Text: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
}

func (p *Panel) voice(file string) ipc.Reply {
	var ch <-chan voice.Result
	if file != "" {
		ch = p.listener.StartFile(p.ctx, file)
	} else {
		ch = p.listener.Start(p.ctx)
	}

	go func() {
		for res := range ch {
			for _, f := range p.onVoice {
				f(res)
			}
		}
	}()

	return ok("🎤 Listening for keyword 'help'... Speak now")
}

func (p *Panel) showHistory() ipc.Reply {
	raw, err := p.history.Raw()
	if err != nil {
		log.Error("Failed to read alert history", "err", err)
		return ipc.Reply{OK: false, Text: err.Error()}
	}
	if raw == "" {
		return ok(NoHistory)
	}
	return ok(raw)
}

func ok(text string) ipc.Reply {
	return ipc.Reply{OK: true, Text: text}
}

func AlertSummary(out alert.Outcome) string {
	var b strings.Builder
	if out.Captured {
		fmt.Fprintf(&b, "📸 Photo saved to %s\n", out.Image)
	} else {
		b.WriteString("📸 No photo captured\n")
	}
	fmt.Fprintf(&b, "✅ Alert logged at %s - %s\n", out.Timestamp, out.Address)
	fmt.Fprintf(&b, "📤 WhatsApp opened for %d contact(s). Please click Send.", out.Notified)
	return b.String()
}

func VoiceSummary(res voice.Result) string {
	switch res.State {
	case voice.Matched:
		s := "🔊 'Help' detected! Triggering alert..."
		if res.Outcome != nil {
			s += "\n" + AlertSummary(*res.Outcome)
		}
		return s
	case voice.NotMatched:
		return "❌ Keyword 'help' not detected."
	default:
		return "Speech recognition failed. Please try again."
	}
}

// Status renders the location display: coordinates, map link as a scannable
// QR code and the nearest police station.
func Status(fix location.Fix) string {
	var b strings.Builder

	b.WriteString("🗺️ Your location\n")
	fmt.Fprintf(&b, "%s (%.4f, %.4f)\n", fix.Address, fix.Latitude, fix.Longitude)
	b.WriteString(fix.MapLink() + "\n")
	if qr, err := qrcode.New(fix.MapLink(), qrcode.Medium); err == nil {
		b.WriteString(qr.ToSmallString(false))
	} else {
		log.Debug("Map QR failed", "err", err)
	}

	station := location.NearestPolice(fix.City)
	fmt.Fprintf(&b, "🚓 Based on your city (%s): %s", fix.City, station)
	if d, ok := location.StationDistance(fix); ok {
		fmt.Fprintf(&b, " (%.1f km)", d/1000)
	}
	return b.String()
}
