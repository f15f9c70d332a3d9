// Package transcribe turns captured voice notes into text via the
// Whisper transcription endpoint.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type Whisper struct {
	client   *openai.Client
	language string
}

func NewWhisper(apiKey, language string) *Whisper {
	return &Whisper{
		client:   openai.NewClient(apiKey),
		language: language,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	log.Printf("🎤 Transcribing %s (%d bytes)", filename, len(audio))

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: w.language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}

	log.Printf("🎤 Transcription complete: %d chars", len(resp.Text))
	return resp.Text, nil
}
