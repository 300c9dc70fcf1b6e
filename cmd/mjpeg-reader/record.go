package main

import (
	"context"
	"errors"
	"mjpeg-toolkit/archive"
	"mjpeg-toolkit/camera"
	"mjpeg-toolkit/metrics"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record frames into an archive file",
	Long: `Record appends every extracted frame to an archive file until interrupted,
the frame limit is reached or the stream is given up on. Use extract to turn
the archive back into JPEG files.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return record(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	flags := recordCmd.Flags()
	flags.StringP("out", "o", "frames.mjpa", "Archive file to write")
	flags.Int("limit", 0, "Stop after this many frames, 0 for no limit")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while recording")
	_ = viper.BindPFlag("record.out", flags.Lookup("out"))
	_ = viper.BindPFlag("record.limit", flags.Lookup("limit"))
	_ = viper.BindPFlag("record.metrics-addr", flags.Lookup("metrics-addr"))
}

func record(ctx context.Context) error {
	url, err := streamURL()
	if err != nil {
		return err
	}
	cfg, err := cameraConfig()
	if err != nil {
		return err
	}

	f, err := os.Create(viper.GetString("record.out"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := archive.NewWriter(f, archive.DefaultConfig())

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := viper.GetString("record.metrics-addr"); addr != "" {
		exporter := metrics.NewExporter(addr)
		go func() {
			if err := exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics exporter failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exporter.Shutdown(shutdownCtx)
		}()
		log.Infof("Serving metrics on %s", addr)
	}

	limit := viper.GetInt64("record.limit")
	var (
		written  atomic.Int64
		doneOnce sync.Once
		done     = make(chan error, 1)
	)
	finish := func(err error) {
		doneOnce.Do(func() { done <- err })
	}
	cfg.OnFrame = func(b []byte) {
		if limit > 0 && written.Load() >= limit {
			return
		}
		rec, err := w.WriteFrame(time.Now(), b)
		if err != nil {
			finish(err)
			return
		}
		log.Debugf("Recorded frame %d (%d bytes)", rec.Seq, len(rec.Data))
		if n := written.Add(1); limit > 0 && n >= limit {
			finish(nil)
		}
	}
	cfg.OnFailure = func(err error) {
		if errors.Is(err, camera.ErrGaveUp) {
			finish(err)
		}
	}

	reader := camera.New(cfg)
	if err := reader.Start(url); err != nil {
		return err
	}
	defer reader.Stop()
	log.Infof("Recording %s into %s", url, f.Name())

	select {
	case <-ctx.Done():
		log.Info("Interrupted")
	case err = <-done:
	}
	stats := reader.Stats()
	log.WithFields(logrus.Fields{
		"received": stats.Frames,
		"interval": stats.SmoothedInterval,
		"jitter":   stats.IntervalVar,
	}).Infof("Recorded %d frames", written.Load())
	return err
}
