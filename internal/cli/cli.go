package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skylarkvoice/skylark/internal/asr"
	"github.com/skylarkvoice/skylark/internal/assistant"
	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/capture"
	"github.com/skylarkvoice/skylark/internal/config"
	"github.com/skylarkvoice/skylark/internal/observability"
	"github.com/skylarkvoice/skylark/internal/tts"
	"github.com/skylarkvoice/skylark/internal/version"
)

// App bundles the wired components the commands operate on. Recognizer
// is nil when no speech engine could be initialized; voice input is then
// disabled and typed input still works.
type App struct {
	Config     *config.Config
	Engine     *assistant.Engine
	Recognizer asr.Recognizer
	Synth      tts.Synthesizer
}

// NewRootCommand builds the command tree
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "skylark",
		Short: "Voice assistant for weather and calendar",
		Long: "Skylark answers spoken or typed questions about the weather and " +
			"manages a personal calendar. Without arguments it starts an " +
			"interactive session.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), app)
		},
	}

	root.AddCommand(newTranscribeCommand(app))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})

	return root
}

type captureResult struct {
	transcript asr.Transcript
	err        error
}

// runInteractive is the turn loop. One line of stdin drives one turn:
// typed text goes straight to the engine, "s" records from the
// microphone, "f <path>" transcribes a WAV file, "q" quits.
func runInteractive(ctx context.Context, app *App) error {
	// One reader goroutine owns stdin for the whole session so the
	// menu and the recording stop signal never fight over it
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("Skylark is listening. Type a question, or:")
	fmt.Println("  s          speak (recording stops on silence or Enter)")
	fmt.Println("  f <path>   transcribe a WAV file and answer it")
	fmt.Println("  q          quit")

	for {
		fmt.Print("> ")

		line, ok := <-lines
		if !ok {
			return nil
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "q" || line == "quit" || line == "exit":
			return nil
		case line == "":
			continue
		case line == "s":
			speakTurn(ctx, app, lines)
		case strings.HasPrefix(line, "f "):
			fileTurn(ctx, app, strings.TrimSpace(strings.TrimPrefix(line, "f ")))
		default:
			deliver(ctx, app, app.Engine.HandleTurn(ctx, line))
		}
	}
}

// speakTurn records one utterance from the microphone and answers it
func speakTurn(ctx context.Context, app *App, lines <-chan string) {
	if app.Recognizer == nil {
		fmt.Println("Speech recognition is not available. Type your question instead.")
		return
	}

	source := audio.NewMicSource(app.Config.SampleRate, app.Config.FrameSize)
	session := capture.NewSession(capture.SessionConfigFrom(app.Config), source, app.Recognizer)

	fmt.Println("Listening... speak now. Press Enter to stop.")

	results := make(chan captureResult, 1)
	go func() {
		t, err := session.Run()
		results <- captureResult{transcript: t, err: err}
	}()

	var res captureResult
	select {
	case res = <-results:
	case <-lines:
		session.Stop()
		res = <-results
	case <-ctx.Done():
		session.Stop()
		res = <-results
	}

	if res.err != nil {
		observability.GetLogger().Error().Err(res.err).Msg("capture failed")
		fmt.Println("Sorry, something went wrong with the microphone or the speech engine.")
		return
	}

	if strings.TrimSpace(res.transcript.Text) == "" {
		deliver(ctx, app, assistant.ReplyNotCaught)
		return
	}

	fmt.Printf("You said: %s\n", res.transcript.Text)
	deliver(ctx, app, app.Engine.HandleTurn(ctx, res.transcript.Text))
}

// fileTurn transcribes a WAV file and answers the utterance it contains
func fileTurn(ctx context.Context, app *App, path string) {
	if app.Recognizer == nil {
		fmt.Println("Speech recognition is not available.")
		return
	}

	samples, sampleRate, err := audio.LoadWAV(path)
	if err != nil {
		fmt.Printf("Could not read %s: %v\n", path, err)
		return
	}

	start := time.Now()
	transcript, err := app.Recognizer.Transcribe(samples, sampleRate)
	observability.RecordASRRequest(err == nil, time.Since(start))
	if err != nil {
		observability.GetLogger().Error().Err(err).Msg("file transcription failed")
		fmt.Println("Sorry, the speech engine could not process that file.")
		return
	}

	if strings.TrimSpace(transcript.Text) == "" {
		deliver(ctx, app, assistant.ReplyNotCaught)
		return
	}

	fmt.Printf("You said: %s\n", transcript.Text)
	deliver(ctx, app, app.Engine.HandleTurn(ctx, transcript.Text))
}

// deliver prints a reply and speaks it when synthesis is enabled
func deliver(ctx context.Context, app *App, reply string) {
	fmt.Println(reply)

	if err := app.Synth.Speak(ctx, reply); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("speech synthesis failed")
	}
}
