package main

import (
	"errors"
	"fmt"
	"mjpeg-toolkit/camera"
	"mjpeg-toolkit/netem"
	"net/http"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errMissingURL = errors.New("no stream url given, use --url or MJPEG_URL")

func addCameraFlags(flags *pflag.FlagSet) {
	def := camera.DefaultConfig()
	flags.String("url", "", "MJPEG stream URL")
	flags.String("name", def.Name, "Source name used in logs and metrics")
	flags.StringSlice("header", nil, `Request header as "Key: Value", repeatable`)
	flags.Int("chunk-size", def.Stream.ChunkSize, "Bytes read from the stream per step")
	flags.Int("buffer-size", def.Stream.BufferSize, "Largest frame accepted, in bytes")
	flags.Duration("restart-initial", def.RestartInitial, "Delay before the first reconnect")
	flags.Duration("restart-max", def.RestartMax, "Upper bound of the reconnect delay")
	flags.Int("max-header-failures", def.MaxHeaderFailures, "Consecutive malformed responses before giving up")
	flags.Int("emulate-fragment", 0, "Emulate a network delivering at most this many bytes per read")
	flags.Int64("emulate-fail-after", 0, "Emulate every connection dropping after this many bytes")
	flags.Duration("emulate-delay", 0, "Emulate a slow network by delaying every read")

	for _, name := range []string{
		"url", "name", "header", "chunk-size", "buffer-size",
		"restart-initial", "restart-max", "max-header-failures",
		"emulate-fragment", "emulate-fail-after", "emulate-delay",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func streamURL() (string, error) {
	url := viper.GetString("url")
	if url == "" {
		return "", errMissingURL
	}
	return url, nil
}

// cameraConfig builds the reader configuration from flags, config file and env.
func cameraConfig() (camera.Config, error) {
	cfg := camera.DefaultConfig()
	cfg.Name = viper.GetString("name")
	cfg.Stream.ChunkSize = viper.GetInt("chunk-size")
	cfg.Stream.BufferSize = viper.GetInt("buffer-size")
	cfg.RestartInitial = viper.GetDuration("restart-initial")
	cfg.RestartMax = viper.GetDuration("restart-max")
	cfg.MaxHeaderFailures = viper.GetInt("max-header-failures")
	cfg.Logger = log

	header, err := parseHeaders(viper.GetStringSlice("header"))
	if err != nil {
		return cfg, err
	}
	cfg.Header = header

	emulation := netem.Config{
		ReadFragmentSize: viper.GetInt("emulate-fragment"),
		ReadFailAfter:    viper.GetInt64("emulate-fail-after"),
		ReadDelay:        viper.GetDuration("emulate-delay"),
	}
	if emulation != (netem.Config{}) {
		log.Warnf("Emulating a degraded network: %+v", emulation)
		cfg.Client = &http.Client{
			Transport: &netem.Transport{
				Config: func(int) netem.Config { return emulation },
			},
		}
	}
	return cfg, nil
}

func parseHeaders(values []string) (http.Header, error) {
	if len(values) == 0 {
		return nil, nil
	}
	header := make(http.Header, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed header %q, expected \"Key: Value\"", v)
		}
		header.Add(key, strings.TrimSpace(value))
	}
	return header, nil
}
