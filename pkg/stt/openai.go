package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"shealert/pkg/audioconv"
)

// Remote sends the utterance to the OpenAI transcription endpoint.
type Remote struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func NewRemote(apiKey string, httpClient *http.Client, language string) (*Remote, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &Remote{
		client:   openai.NewClient(opts...),
		model:    openai.AudioModelWhisper1,
		language: language,
	}, nil
}

func (r *Remote) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	if len(pcm16k) == 0 {
		return "", errors.New("no audio samples provided")
	}

	// the wav encoder needs to seek back and patch its header
	tmp, err := os.CreateTemp("", "shealert-*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := audioconv.EncodeWAV16k(tmp, pcm16k); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(tmp, "utterance.wav", "audio/wav"),
		Model: r.model,
	}
	if r.language != "" && r.language != "auto" {
		params.Language = openai.String(r.language)
	}

	res, err := r.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return res.Text, nil
}
