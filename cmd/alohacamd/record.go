package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lanikai/alohacam"
)

var (
	recordDuration time.Duration
	recordOutput   string
	photoOutput    string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a clip",
	Long: `Record video, and audio if a stream is configured, to an MP4 file. Without
--duration the recording runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		path := recordOutput
		if path == "" {
			path = outputPath(cfg.Output.Directory, "recording", ".mp4")
		}
		path, err := record(ctx, cfg, path, recordDuration)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Capture a still",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := photoOutput
		if path == "" {
			path = outputPath(cfg.Output.Directory, "photo", ".jpg")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := photo(ctx, cfg, path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop after this long")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "output file (default recording-<uuid>.mp4 in the output directory)")
	photoCmd.Flags().StringVarP(&photoOutput, "output", "o", "", "output file (default photo-<uuid>.jpg in the output directory)")
}

// record runs one recording until d elapses or ctx is done, and returns the
// path of the finished file.
func record(ctx context.Context, c daemonConfig, path string, d time.Duration) (string, error) {
	cam, err := openCamera(c, alohacam.ModeVideo)
	if err != nil {
		return "", err
	}
	defer cam.Close()

	if _, err := cam.waitFor(ctx, "status"); err != nil {
		return "", err
	}

	cam.session.StartRecording(path)
	ev, err := cam.waitFor(ctx, "recordingStarted", "recordingFinished")
	if err != nil {
		return "", err
	}
	if ev.Type == "recordingStarted" {
		log.Info("Recording to %s", path)
		var timeout <-chan time.Time
		if d > 0 {
			timeout = time.After(d)
		}
		select {
		case <-timeout:
		case <-ctx.Done():
		}
		cam.session.StopRecording()

		// Finishing must not be cut short by the interrupt that stopped us.
		if ev, err = cam.waitFor(context.Background(), "recordingFinished"); err != nil {
			return "", err
		}
	}
	if ev.Error != "" {
		return "", errors.New(ev.Error)
	}
	return ev.Path, nil
}

func photo(ctx context.Context, c daemonConfig, path string) error {
	cam, err := openCamera(c, alohacam.ModePhoto)
	if err != nil {
		return err
	}
	defer cam.Close()

	if _, err := cam.waitFor(ctx, "status"); err != nil {
		return err
	}

	cam.session.CapturePhoto()
	ev, err := cam.waitFor(ctx, "photo")
	if err != nil {
		return err
	}
	if ev.Error != "" {
		return errors.New(ev.Error)
	}
	return os.WriteFile(path, ev.data, 0644)
}
