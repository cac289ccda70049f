package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/observability"
)

// newTranscribeCommand transcribes a WAV file and prints the text, one
// word confidence per line with --words
func newTranscribeCommand(app *App) *cobra.Command {
	var showWords bool

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Recognizer == nil {
				return fmt.Errorf("speech recognition is not available, check ASR_ENGINE configuration")
			}

			samples, sampleRate, err := audio.LoadWAV(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			start := time.Now()
			transcript, err := app.Recognizer.Transcribe(samples, sampleRate)
			observability.RecordASRRequest(err == nil, time.Since(start))
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", args[0], err)
			}

			fmt.Println(transcript.Text)

			if showWords {
				for _, w := range transcript.Words {
					fmt.Printf("%s\t%.2f\n", w.Token, w.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showWords, "words", false, "print per-word confidences")
	return cmd
}
