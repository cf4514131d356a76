// Command speak synthesizes text or a document to an audio file using the
// same providers as the API server.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/go-mp3"
	"github.com/spf13/cobra"

	"github.com/fluentnow/fluentnow-api/internal/config"
	"github.com/fluentnow/fluentnow-api/internal/logging"
	"github.com/fluentnow/fluentnow-api/internal/speech"
	"github.com/fluentnow/fluentnow-api/internal/tts"
	"github.com/fluentnow/fluentnow-api/pkg/textextract"
)

type options struct {
	file    string
	accent  string
	out     string
	envFile string
	backend string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "speak [text...]",
		Short: "Synthesize text or a document to an audio file",
		Long: `Synthesize text with the configured text-to-speech backend.

Examples:
  speak "Bonjour tout le monde"
  speak --accent british -o hello.mp3 "Hello there"
  speak --file lesson.pdf --backend edge`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read text from a .pdf, .docx or .txt file")
	f.StringVarP(&opts.accent, "accent", "a", "", "accent name mapped through TTS_ACCENT_VOICES")
	f.StringVarP(&opts.out, "out", "o", "", "output path (default speech-<id>.<ext>)")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with provider credentials")
	f.StringVar(&opts.backend, "backend", "", "override TTS_BACKEND")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.backend != "" {
		cfg.TTS.Backend = strings.ToLower(opts.backend)
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	text, err := readText(opts.file, args)
	if err != nil {
		return err
	}

	provider, err := tts.NewProvider(cfg.TTS)
	if err != nil {
		return err
	}
	svc := speech.NewService(provider, speech.Options{AccentVoices: cfg.TTS.AccentVoices})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := svc.Generate(ctx, speech.Request{Text: text, Accent: opts.accent})
	if err != nil {
		var upErr *tts.UpstreamError
		if errors.As(err, &upErr) {
			return fmt.Errorf("%s rejected the request (status %d): %s", upErr.Provider, upErr.Status, upErr.Body)
		}
		return err
	}

	out := opts.out
	if out == "" {
		out = defaultOutputName(result.ContentType)
	}
	if err := os.WriteFile(out, result.Audio, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	line := fmt.Sprintf("wrote %s (%d bytes", out, len(result.Audio))
	if result.ContentType == tts.ContentTypeMPEG {
		if d, err := mp3Duration(result.Audio); err == nil {
			line += ", " + d.Round(100*time.Millisecond).String()
		} else {
			slog.Debug("could not decode mp3 for duration", "error", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), line+")")
	return nil
}

func readText(file string, args []string) (string, error) {
	if file == "" {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return "", speech.ErrTextRequired
		}
		return text, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	extracted, err := textextract.ExtractFile(file, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", file, err)
	}
	if extracted.Content == "" {
		return "", fmt.Errorf("no extractable text found in %s", file)
	}
	return extracted.Content, nil
}

func defaultOutputName(contentType string) string {
	ext := ".mp3"
	if contentType == tts.ContentTypeWAV {
		ext = ".wav"
	}
	return "speech-" + uuid.NewString()[:8] + ext
}

// mp3Duration decodes the stream header to compute playback length.
// go-mp3 always decodes to 16-bit stereo, i.e. 4 bytes per sample frame.
func mp3Duration(audio []byte) (time.Duration, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0, err
	}
	if dec.Length() <= 0 || dec.SampleRate() <= 0 {
		return 0, errors.New("unknown stream length")
	}
	frames := dec.Length() / 4
	return time.Duration(frames) * time.Second / time.Duration(dec.SampleRate()), nil
}
