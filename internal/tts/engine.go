package tts

import (
	"context"
	"errors"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// Engine synthesizes speech through Google Cloud TTS. The encoding is
// fixed at construction so cached audio always matches the playback
// decoder.
type Engine struct {
	client   *texttospeech.Client
	encoding texttospeechpb.AudioEncoding
}

func NewEngine(ctx context.Context, credentialsPath, encoding string) (*Engine, error) {
	enc, err := parseEncoding(encoding)
	if err != nil {
		return nil, err
	}

	client, err := texttospeech.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("tts client: %w", err)
	}

	return &Engine{client: client, encoding: enc}, nil
}

func parseEncoding(encoding string) (texttospeechpb.AudioEncoding, error) {
	switch encoding {
	case "LINEAR16":
		return texttospeechpb.AudioEncoding_LINEAR16, nil
	case "MP3":
		return texttospeechpb.AudioEncoding_MP3, nil
	case "OGG_OPUS":
		return texttospeechpb.AudioEncoding_OGG_OPUS, nil
	default:
		return 0, fmt.Errorf("unsupported audio encoding: %q", encoding)
	}
}

func (e *Engine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := e.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			SsmlGender:   texttospeechpb.SsmlVoiceGender_MALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: e.encoding,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, errors.New("empty audio content")
	}
	return resp.AudioContent, nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}
