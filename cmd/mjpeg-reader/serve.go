package main

import (
	"context"
	"errors"
	"mjpeg-toolkit/camera"
	"mjpeg-toolkit/metrics"
	"mjpeg-toolkit/relay"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-serve the camera to any number of viewers",
	Long: `Serve keeps a single connection to the camera and fans its frames out:

  /stream.mjpg   multipart/x-mixed-replace stream
  /snapshot.jpg  latest frame
  /ws            one binary websocket message per frame
  /metrics       Prometheus metrics`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	flags := serveCmd.Flags()
	flags.String("listen", "127.0.0.1:8080", "Listen on this address:port for HTTP requests")
	_ = viper.BindPFlag("serve.listen", flags.Lookup("listen"))
}

func newServeMux(streamCtx context.Context, hub *relay.Hub, exporter *metrics.Exporter) *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("/stream.mjpg", relay.ContextMiddleware(streamCtx, hub.MJPEGHandler))
	m.HandleFunc("/ws", relay.ContextMiddleware(streamCtx, hub.WebSocketHandler))
	m.HandleFunc("/snapshot.jpg", hub.SnapshotHandler)
	m.Handle("/metrics", exporter.Handler())
	return m
}

func serve(ctx context.Context) error {
	url, err := streamURL()
	if err != nil {
		return err
	}
	cfg, err := cameraConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(relay.Config{Logger: log})
	defer hub.Close()
	cfg.OnFrame = hub.Publish
	cfg.OnFailure = func(err error) {
		if errors.Is(err, camera.ErrGaveUp) {
			log.Error("Camera stream given up, stopping")
			stop()
		}
	}

	reader := camera.New(cfg)
	if err := reader.Start(url); err != nil {
		return err
	}
	defer reader.Stop()

	// Streaming responses never end on their own, so they get a context
	// cancelled on shutdown. Using it as the server's BaseContext would cancel
	// every in-flight request instead.
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	addr := viper.GetString("serve.listen")
	s := http.Server{
		Addr:              addr,
		Handler:           newServeMux(streamCtx, hub, metrics.NewExporter(addr)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.RegisterOnShutdown(cancelStreams)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		log.Info("Shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Failed to shut down HTTP server: %v", err)
		}
	}()

	log.Infof("Relaying %s on %s", url, addr)
	if err = s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("HTTP server failed: %v", err)
		stop()
	} else {
		err = reader.Err()
	}
	wg.Wait()
	return err
}
