package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"mjpeg-toolkit/archive"
	"mjpeg-toolkit/metrics"
	"mjpeg-toolkit/netem"
	"mjpeg-toolkit/relay"
	"mjpeg-toolkit/util/mocks"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// setConfig overrides viper keys for the duration of the test.
func setConfig(t *testing.T, values map[string]any) {
	for k, v := range values {
		prev := viper.Get(k)
		viper.Set(k, v)
		t.Cleanup(func() { viper.Set(k, prev) })
	}
}

func TestParseHeaders(t *testing.T) {
	require := require.New(t)
	header, err := parseHeaders([]string{"Authorization: Basic Zm9v", "X-Camera:front"})
	require.Nil(err)
	require.Equal("Basic Zm9v", header.Get("Authorization"))
	require.Equal("front", header.Get("X-Camera"))

	header, err = parseHeaders(nil)
	require.Nil(err)
	require.Nil(header)

	_, err = parseHeaders([]string{"no colon"})
	require.Error(err)
	_, err = parseHeaders([]string{": value"})
	require.Error(err)
}

func TestCameraConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		require := require.New(t)
		cfg, err := cameraConfig()
		require.Nil(err)
		require.Equal("camera", cfg.Name)
		require.Equal(640*480, cfg.Stream.ChunkSize)
		require.Equal(500*time.Millisecond, cfg.RestartInitial)
		require.Nil(cfg.Client.Transport)

		_, err = streamURL()
		require.Equal(errMissingURL, err)
	})

	t.Run("overrides", func(t *testing.T) {
		require := require.New(t)
		setConfig(t, map[string]any{
			"url":                "http://camera/video.mjpg",
			"name":               "front",
			"chunk-size":         1024,
			"restart-max":        "1m",
			"header":             []string{"Authorization: Bearer x"},
			"emulate-fragment":   7,
			"emulate-fail-after": 1000,
		})
		cfg, err := cameraConfig()
		require.Nil(err)
		require.Equal("front", cfg.Name)
		require.Equal(1024, cfg.Stream.ChunkSize)
		require.Equal(time.Minute, cfg.RestartMax)
		require.Equal("Bearer x", cfg.Header.Get("Authorization"))

		transport, ok := cfg.Client.Transport.(*netem.Transport)
		require.True(ok)
		require.Equal(netem.Config{ReadFragmentSize: 7, ReadFailAfter: 1000}, transport.Config(3))

		url, err := streamURL()
		require.Nil(err)
		require.Equal("http://camera/video.mjpg", url)
	})

	t.Run("malformed header", func(t *testing.T) {
		setConfig(t, map[string]any{"header": []string{"oops"}})
		_, err := cameraConfig()
		require.Error(t, err)
	})
}

func TestRecordAndExtract(t *testing.T) {
	require := require.New(t)
	rand := rand.New(rand.NewSource(0))
	frames := [][]byte{mocks.JPEG(rand, 2000), mocks.JPEG(rand, 3000)}
	srv := httptest.NewServer(&mocks.Camera{Frames: frames, Loop: true, Interval: time.Millisecond})
	defer srv.Close()

	dir := t.TempDir()
	out := filepath.Join(dir, "frames.mjpa")
	setConfig(t, map[string]any{
		"url":          srv.URL,
		"chunk-size":   4096,
		"record.out":   out,
		"record.limit": 5,
	})
	require.Nil(record(context.Background()))

	n, err := extract(out, filepath.Join(dir, "jpeg"))
	require.Nil(err)
	require.Equal(5, n)
	for seq := 1; seq <= 5; seq++ {
		b, err := os.ReadFile(filepath.Join(dir, "jpeg", fmt.Sprintf("frame-%d.jpg", seq)))
		require.Nil(err)
		require.True(bytes.HasPrefix(b, []byte{0xFF, 0xD8}))
	}
}

func TestRecordMissingURL(t *testing.T) {
	setConfig(t, map[string]any{"url": ""})
	require.Equal(t, errMissingURL, record(context.Background()))
}

func TestExtractTruncated(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.mjpa")

	var buf bytes.Buffer
	w := archive.NewWriter(&buf, archive.DefaultConfig())
	_, err := w.WriteFrame(time.Now(), []byte("\xFF\xD8one"))
	require.Nil(err)
	_, err = w.WriteFrame(time.Now(), []byte("\xFF\xD8two"))
	require.Nil(err)
	require.Nil(os.WriteFile(path, buf.Bytes()[:buf.Len()-2], 0o644))

	n, err := extract(path, dir)
	require.Equal(1, n)
	require.ErrorIs(err, io.ErrUnexpectedEOF)

	_, err = extract(filepath.Join(dir, "missing.mjpa"), dir)
	require.Error(err)
}

func TestServeMux(t *testing.T) {
	require := require.New(t)
	hub := relay.NewHub(relay.DefaultConfig())
	defer hub.Close()
	srv := httptest.NewServer(newServeMux(context.Background(), hub, metrics.NewExporter("")))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot.jpg")
	require.Nil(err)
	resp.Body.Close()
	require.Equal(http.StatusServiceUnavailable, resp.StatusCode)

	hub.Publish([]byte("\xFF\xD8frame"))
	resp, err = http.Get(srv.URL + "/snapshot.jpg")
	require.Nil(err)
	resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.Nil(err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Nil(err)
	require.Contains(string(body), "mjpeg_relay_subscribers")
}

func TestVersion(t *testing.T) {
	require := require.New(t)
	require.NotEmpty(GetVersion())
	require.Contains(GetVersionInfo(), "mjpeg-reader version "+GetVersion())

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	require.Contains(out.String(), "mjpeg-reader version")
}
