package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDevice = "/dev/video0"
	DefaultFormat = "v4l2"
	DefaultBinary = "ffmpeg"
)

// Runner executes a capture command. Swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.Bytes(), err
	}
	return stderr.Bytes(), nil
}

type Config struct {
	Binary  string
	Format  string
	Device  string
	Dir     string
	Timeout time.Duration
}

// Webcam grabs single stills through ffmpeg. Each capture gets its own file
// so earlier alert photos are kept.
type Webcam struct {
	cfg Config
	run Runner
}

func NewWebcam(cfg Config) *Webcam {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Webcam{cfg: cfg, run: execRunner}
}

func (w *Webcam) WithRunner(r Runner) *Webcam {
	w.run = r
	return w
}

// FileName builds the per-alert image name.
func FileName(at time.Time) string {
	return fmt.Sprintf("alert-%s-%s.jpg", at.Format("20060102-150405"), uuid.NewString()[:8])
}

// Capture writes one frame to Dir/name and returns its path.
func (w *Webcam) Capture(ctx context.Context, name string) (string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(w.cfg.Dir, name)

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	out, err := w.run(ctx, w.cfg.Binary,
		"-hide_banner", "-loglevel", "error",
		"-f", w.cfg.Format,
		"-i", w.cfg.Device,
		"-frames:v", "1",
		"-y", path,
	)
	if err != nil {
		log.Debug("Capture command failed", "device", w.cfg.Device, "output", string(out))
		return "", fmt.Errorf("capture from %s: %w", w.cfg.Device, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("no frame written: %w", err)
	}
	if st.Size() == 0 {
		os.Remove(path)
		return "", errors.New("no frame returned")
	}

	return path, nil
}
