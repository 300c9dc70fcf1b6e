package main

import (
	"errors"
	"fmt"
	"io"
	"mjpeg-toolkit/archive"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Write every frame of an archive as a JPEG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		n, err := extract(args[0], viper.GetString("extract.out"))
		log.Infof("Extracted %d frames", n)
		return err
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	flags := extractCmd.Flags()
	flags.StringP("out", "o", ".", "Directory to write frames into")
	_ = viper.BindPFlag("extract.out", flags.Lookup("out"))
}

// extract writes each record of the archive at path to dir as frame-<seq>.jpg.
func extract(path, dir string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	r := archive.NewReader(f, archive.DefaultConfig())
	n := 0
	for {
		rec, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("reading record %d: %w", n+1, err)
		}
		name := filepath.Join(dir, fmt.Sprintf("frame-%d.jpg", rec.Seq))
		if err := os.WriteFile(name, rec.Data, 0o644); err != nil {
			return n, err
		}
		log.Debugf("Wrote %s (%d bytes, %s)", name, len(rec.Data), rec.Time.Format("15:04:05.000"))
		n++
	}
}
