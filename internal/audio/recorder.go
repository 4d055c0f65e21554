package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameMs    = 20
)

type Options struct {
	CalibrateMs  int     // ambient-noise sampling before capture
	MinThreshold float64 // RMS floor for "speech"
	NoiseFactor  float64 // threshold = max(MinThreshold, ambient*NoiseFactor)
	SilenceMs    int     // trailing silence that ends an utterance
	MaxSeconds   int
}

var DefaultOptions = Options{
	CalibrateMs:  1000,
	MinThreshold: 0.015,
	NoiseFactor:  2.5,
	SilenceMs:    800,
	MaxSeconds:   10,
}

type Recorder struct {
	opt Options
}

func NewRecorder(opt Options) *Recorder { return &Recorder{opt: opt} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Listen calibrates against ambient noise and then captures one utterance
// from the default input device.
func (r *Recorder) Listen(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer stream.Stop()

	read := func() ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}
		return buf, nil
	}

	return capture(read, r.opt)
}

// capture is the device-independent part of Listen: next returns successive
// 20ms frames (the slice may be reused between calls).
func capture(next func() ([]float32, error), opt Options) ([]float32, error) {
	var ambient float64
	calFrames := opt.CalibrateMs / frameMs
	for i := 0; i < calFrames; i++ {
		f, err := next()
		if err != nil {
			return nil, err
		}
		ambient += frameRMS(f)
	}
	if calFrames > 0 {
		ambient /= float64(calFrames)
	}
	thresh := math.Max(opt.MinThreshold, ambient*opt.NoiseFactor)
	log.Debug("Calibrated microphone", "ambient", ambient, "threshold", thresh)

	var (
		out           []float32
		speaking      bool
		silenceFrames int
	)
	maxFrames := opt.MaxSeconds * SampleRate / frameSize
	silenceLimit := opt.SilenceMs / frameMs

	for i := 0; i < maxFrames; i++ {
		f, err := next()
		if err != nil {
			return nil, err
		}

		if frameRMS(f) > thresh {
			speaking = true
			silenceFrames = 0
			out = append(out, f...)
			continue
		}
		if speaking {
			silenceFrames++
			out = append(out, f...)
			if silenceFrames >= silenceLimit {
				break
			}
		}
	}

	if len(out) == 0 {
		return nil, errors.New("no speech captured")
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
