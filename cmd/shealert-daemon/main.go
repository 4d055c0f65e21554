package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"shealert/internal/alert"
	"shealert/internal/alertlog"
	"shealert/internal/audio"
	"shealert/internal/bus"
	"shealert/internal/camera"
	"shealert/internal/config"
	"shealert/internal/contacts"
	"shealert/internal/ipc"
	"shealert/internal/location"
	"shealert/internal/notify"
	"shealert/internal/panel"
	"shealert/internal/proxy"
	"shealert/internal/tts"
	"shealert/internal/voice"
	"shealert/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	httpClient, err := proxy.NewClient(cfg.ProxyAddr, 0)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.ProxyAddr, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locator := location.NewProvider(cfg.GeoURL, cfg.GeoTimeout, httpClient)
	alerts := alertlog.New(cfg.AlertLogPath)

	trigger := alert.NewTrigger(alert.Deps{
		Camera: camera.NewWebcam(camera.Config{
			Binary: cfg.CameraBinary,
			Format: cfg.CameraFormat,
			Device: cfg.CameraDevice,
			Dir:    cfg.ImageDir,
		}),
		Locator:    locator,
		Log:        alerts,
		Directory:  contacts.NewDirectory(cfg.ContactsPath),
		Dispatcher: notify.NewDispatcher(cfg.MessengerHost, nil),
	})

	if cfg.BusURL != "" {
		b, err := bus.Dial(cfg.BusURL)
		if err != nil {
			log.Warn("Event bus unavailable, alerts will not be published", "url", cfg.BusURL, "err", err)
		} else {
			defer b.Close()
			trigger.OnFired(b.PublishAlert)
		}
	}

	if cfg.Speak {
		trigger.OnFired(func(out alert.Outcome) {
			msg := "Emergency alert sent to " + plural(out.Notified, "contact")
			if err := tts.Speak(msg, cfg.SpeakLang); err != nil {
				log.Error("Failed to voice out", "err", err)
			}
		})
	}

	rec := audio.NewRecorder(audio.DefaultOptions)
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	transcriber, closeSTT, err := newTranscriber(cfg, httpClient)
	if err != nil {
		log.Error("Failed to init transcription", "backend", cfg.STT, "err", err)
		os.Exit(1)
	}
	defer closeSTT()

	log.Debug("Loaded transcriber", "backend", cfg.STT)

	listener := voice.NewListener(rec, transcriber, trigger)
	listener.OnListen(func() {
		if err := notify.Beep(cfg.BeepPath); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	})

	p := panel.New(ctx, trigger, listener, location.NewCached(locator, cfg.GeoTTL), alerts)
	p.OnVoiceResult(func(res voice.Result) {
		log.Info(panel.VoiceSummary(res), "state", res.State.String(), "transcript", res.Transcript)
	})

	srv, err := ipc.Listen(*socket, p.Handle)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	log.Info("Boot up - successful", "socket", *socket)

	<-ctx.Done()
	log.Info("Shutting down")
}

func newTranscriber(cfg *config.Config, httpClient *http.Client) (voice.Transcriber, func(), error) {
	switch cfg.STT {
	case config.STTOpenAI:
		r, err := stt.NewRemote(cfg.OpenAIKey, httpClient, cfg.Language)
		return r, func() {}, err
	default:
		w, err := stt.NewWhisper(cfg.WhisperModel, stt.Options{
			Language:      cfg.Language,
			InitialPrompt: "help",
		})
		if err != nil {
			return nil, nil, err
		}
		return w, func() { w.Close() }, nil
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
