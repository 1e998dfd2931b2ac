// filmmeter-remote: meter a still image against a running filmmeter server.
//
//	filmmeter-remote -image shot.jpg -x 0.4 -y 0.6 -gray card.jpg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teslashibe/go-filmmeter/internal/config"
	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/client"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/readout"
)

func main() {
	url := flag.String("url", config.ServerURL(), "Server metering socket")
	imagePath := flag.String("image", "", "Image to meter (required)")
	grayPath := flag.String("gray", "", "Image to set middle gray from, sampled at the same point")
	x := flag.Float64("x", 0.5, "Sample point, 0 (left) to 1 (right)")
	y := flag.Float64("y", 0.5, "Sample point, 0 (top) to 1 (bottom)")
	lang := flag.String("lang", os.Getenv("LANG"), "Readout language")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	check := flag.Bool("check", false, "Only check that the server is up")
	flag.Parse()

	log.Init(config.LogLevel())

	if *check {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		h, err := client.CheckHealth(ctx, *url)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s (version %s, %d sessions, camera %v)\n", h.Status, h.Version, h.Sessions, h.Camera)
		return
	}

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *url, *imagePath, *grayPath, *x, *y, readout.New(langTag(*lang))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, url, imagePath, grayPath string, x, y float64, r *readout.Renderer) error {
	c, err := client.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer c.Close()
	log.Debug("connected", "url", url, "session", c.SessionID())

	if _, err := c.Tap(ctx, x, y); err != nil {
		return err
	}

	if grayPath != "" {
		if err := meterFile(ctx, c, r, readout.ModeCalibrate, grayPath); err != nil {
			return err
		}
		fmt.Println()
	}
	return meterFile(ctx, c, r, readout.ModeMeasure, imagePath)
}

func meterFile(ctx context.Context, c *client.Client, r *readout.Renderer, mode readout.Mode, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	var rep meter.Report
	if mode == readout.ModeCalibrate {
		rep, err = c.Calibrate(ctx, format, data)
	} else {
		rep, err = c.Measure(ctx, format, data)
	}

	var remoteErr *client.RemoteError
	if err != nil && !errors.As(err, &remoteErr) {
		return err
	}
	lines := r.Render(mode, rep, err)
	for _, line := range []string{lines.Status, lines.Luminance, lines.Stops, lines.Note} {
		if line != "" {
			fmt.Println(line)
		}
	}
	return err
}

// langTag turns a POSIX locale such as ja_JP.UTF-8 into a language tag.
func langTag(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ReplaceAll(locale, "_", "-")
}
