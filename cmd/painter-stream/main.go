// Command painter-stream sends a PNG, or a folder of PNGs in name order,
// to a painterd instance as panel frames.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		host    = flag.String("host", "", "painterd base URL, e.g. http://pi.local:5000")
		image   = flag.String("image", "", "Single PNG to send")
		folder  = flag.String("folder", "", "Folder of PNGs to stream in name order")
		fps     = flag.Int("fps", 10, "Frames per second for -folder")
		loop    = flag.Bool("loop", false, "Repeat the folder until interrupted")
		stretch = flag.Bool("stretch", false, "Stretch frames instead of letterboxing")
		verbose = flag.Bool("v", false, "Log every frame")
	)
	flag.Parse()

	if *host == "" {
		fmt.Fprintln(os.Stderr, "painter-stream: -host is required")
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	s := &streamer{
		host:   *host,
		fit:    !*stretch,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *image != "":
		err = s.send(ctx, *image)
	case *folder != "":
		var files []string
		files, err = pngFiles(*folder)
		if err == nil && len(files) == 0 {
			fmt.Println("No PNG files in folder")
			return
		}
		if err == nil {
			err = s.stream(ctx, files, *fps, *loop)
		}
	default:
		fmt.Fprintln(os.Stderr, "painter-stream: one of -image or -folder is required")
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithField("error", err.Error()).Error("Streaming failed")
		os.Exit(1)
	}
}
