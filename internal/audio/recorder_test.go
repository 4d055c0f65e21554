package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constFrame(v float32) []float32 {
	f := make([]float32, frameSize)
	for i := range f {
		f[i] = v
	}
	return f
}

type frameSource struct {
	frames [][]float32
	i      int
}

func (s *frameSource) next() ([]float32, error) {
	if s.i >= len(s.frames) {
		return constFrame(0), nil
	}
	f := s.frames[s.i]
	s.i++
	return f, nil
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0.5, frameRMS(constFrame(0.5)), 1e-6)
	assert.Equal(t, 0.0, frameRMS(nil))
}

func TestCapture_UtteranceAfterNoise(t *testing.T) {
	opt := Options{CalibrateMs: 100, MinThreshold: 0.01, NoiseFactor: 2, SilenceMs: 60, MaxSeconds: 2}

	var frames [][]float32
	for i := 0; i < 5; i++ { // calibration: ambient 0.05 -> threshold 0.1
		frames = append(frames, constFrame(0.05))
	}
	frames = append(frames, constFrame(0.06)) // still background
	for i := 0; i < 4; i++ {
		frames = append(frames, constFrame(0.4))
	}
	src := &frameSource{frames: frames}

	pcm, err := capture(src.next, opt)
	require.NoError(t, err)
	// 4 speech frames + 3 trailing silence frames
	assert.Len(t, pcm, 7*frameSize)
	assert.InDelta(t, 0.4, pcm[0], 1e-6)
}

func TestCapture_NoSpeech(t *testing.T) {
	opt := Options{CalibrateMs: 40, MinThreshold: 0.01, NoiseFactor: 2, SilenceMs: 60, MaxSeconds: 1}
	_, err := capture((&frameSource{}).next, opt)
	assert.EqualError(t, err, "no speech captured")
}

func TestCapture_DeviceError(t *testing.T) {
	boom := errors.New("input overflowed")
	_, err := capture(func() ([]float32, error) { return nil, boom }, DefaultOptions)
	assert.ErrorIs(t, err, boom)
}
