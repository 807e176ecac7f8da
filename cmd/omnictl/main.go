// Command omnictl is a thin CLI front-end onto the engine: headless
// playback through the local audio device, and offline WAV bounce. It
// mirrors the teacher's thin main.go, trading bubbletea/flag for cobra
// since the domain here is a CLI tool rather than a TUI.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omniproject/omniengine/internal/engine"
	"github.com/omniproject/omniengine/internal/export"
)

var sampleRate int

func main() {
	root := &cobra.Command{
		Use:   "omnictl",
		Short: "Control and bounce an omniengine project",
	}
	root.PersistentFlags().IntVar(&sampleRate, "sample-rate", 48000, "engine sample rate in Hz")

	root.AddCommand(playCmd(), bounceCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start the engine and play through the default audio device",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := engine.New(sampleRate)
			eng.Play()
			out, err := engine.NewOutput(eng)
			if err != nil {
				return fmt.Errorf("omnictl: open output: %w", err)
			}
			defer out.Close()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
}

func bounceCmd() *cobra.Command {
	var outPath string
	var seconds float64
	var blockSize int

	cmd := &cobra.Command{
		Use:   "bounce",
		Short: "Render the engine's current arrangement to a WAV file offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := engine.New(sampleRate)
			eng.Play()
			eng.SetArrangementMode(true)

			totalFrames := int(seconds * float64(sampleRate))
			return export.Render(eng, outPath, export.Options{
				SampleRate:  sampleRate,
				TotalFrames: totalFrames,
				BlockSize:   blockSize,
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "bounce.wav", "output WAV path")
	cmd.Flags().Float64VarP(&seconds, "seconds", "s", 30, "duration to render, in seconds")
	cmd.Flags().IntVar(&blockSize, "block-size", 2048, "render block size in frames")
	return cmd
}
