package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cbodonnell/solongsucker/client/game"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/recording"
	"github.com/cbodonnell/solongsucker/pkg/version"
)

func main() {
	path := flag.String("file", "", "Recording to replay")
	speed := flag.Float64("speed", 0, "Replay speed relative to the recording (0 prints without waiting)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel))
	log.Info("Starting replay version %s", version.Get())

	if *path == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(2)
	}

	if err := replay(*path, *speed, os.Stdout); err != nil {
		log.Error("Replay failed: %v", err)
		os.Exit(1)
	}
}

func replay(path string, speed float64, out io.Writer) error {
	reader, err := recording.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var previous time.Time
	count := 0
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if speed > 0 && !previous.IsZero() {
			time.Sleep(time.Duration(float64(entry.ReceivedAt.Sub(previous)) / speed))
		}
		previous = entry.ReceivedAt

		fmt.Fprintf(out, "#%d %s\n", entry.Seq, entry.ReceivedAt.Format(time.RFC3339))
		if err := game.Render(out, entry.State); err != nil {
			return err
		}
		count++
	}

	log.Info("Replayed %d snapshots from %s", count, path)
	return nil
}
