package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGateway implements Gateway against the OpenAI audio APIs: tts-1 for
// synthesis and whisper-1 (verbose JSON) for segment transcription.
type OpenAIGateway struct {
	client     openai.Client
	speech     openai.SpeechModel
	transcribe openai.AudioModel
}

// NewOpenAI creates a gateway authenticated with apiKey. An empty key is a
// configuration error and is reported immediately rather than on first use.
func NewOpenAI(apiKey string, opts ...option.RequestOption) (*OpenAIGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", ErrNotConfigured)
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIGateway{
		client:     openai.NewClient(opts...),
		speech:     openai.SpeechModelTTS1,
		transcribe: openai.AudioModelWhisper1,
	}, nil
}

// Synthesize renders text with the tts-1 model and returns MP3 bytes.
func (g *OpenAIGateway) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	log.Debug("synthesizing narration", "voice", voice, "text_length", len(text))

	res, err := g.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: g.speech,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio body: %v", ErrSynthesisFailed, err)
	}

	log.Debug("synthesis complete", "audio_bytes", len(audio))
	return audio, nil
}

// Transcribe runs whisper-1 over the audio and returns its timed segments.
// The verbose JSON response format is required; the plain format carries no
// timing information.
func (g *OpenAIGateway) Transcribe(ctx context.Context, audio []byte) ([]Segment, error) {
	transcription, err := g.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:          g.transcribe,
		File:           openai.File(bytes.NewReader(audio), "narration.mp3", "audio/mpeg"),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	// The SDK decodes every response format into Transcription; re-parse the
	// raw payload to reach the verbose segment spans, which Transcription
	// does not expose.
	var verbose struct {
		Segments []struct {
			Text  string  `json:"text"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"segments"`
	}
	if err := json.Unmarshal([]byte(transcription.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("%w: decoding verbose response: %v", ErrTranscriptionFailed, err)
	}

	segments := make([]Segment, 0, len(verbose.Segments))
	for _, s := range verbose.Segments {
		segments = append(segments, Segment{
			Text:  s.Text,
			Start: s.Start,
			End:   s.End,
		})
	}

	log.Debug("transcription complete", "segments", len(segments))
	return segments, nil
}
