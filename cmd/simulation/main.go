package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/internal/report"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/internal/terminal"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/internal/viewer"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/simulation"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "JSON configuration file (defaults are used when empty)")
	schemaFile := flag.String("schema", "", "JSON schema for the configuration (embedded schema when empty)")
	seed := flag.Uint64("seed", 0, "random seed, overrides the configuration")
	epochs := flag.Int("epochs", 0, "number of epochs, overrides the configuration")
	population := flag.Int("population", 0, "number of citizens, overrides the configuration")
	view := flag.String("view", "window", "how to show the run: window, terminal or none")
	chartFile := flag.String("chart", "", "write the status chart PNG to this file")
	videoFile := flag.String("video", "", "write an MJPEG AVI animation to this file")
	historyFile := flag.String("history", "", "write every epoch as JSON lines to this file")
	countsFile := flag.String("counts", "", "write the status counts as CSV to this file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile, *schemaFile); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "epochs":
			cfg.Epochs = *epochs
		case "population":
			cfg.Population = *population
		}
	})
	wantsOutput := *chartFile != "" || *videoFile != "" || *historyFile != "" || *countsFile != ""
	if wantsOutput {
		cfg.KeepHistory = true
	}

	logger := golog.DefaultLogger
	if *debug {
		logger = golog.New(golog.DebugLevel, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner, err := simulation.NewRunner(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer runner.Stop(context.Background())

	switch *view {
	case "window":
		game := viewer.NewGame(ctx, cfg, runner, cfg.Params().Radius())
		if err := viewer.Run(game); err != nil {
			log.Fatal(err)
		}
	case "terminal":
		if err := runTerminal(ctx, runner); err != nil {
			log.Fatal(err)
		}
	case "none":
		if _, err := runner.RunToEnd(ctx); err != nil {
			log.Fatalf("simulation failed: %v", err)
		}
	default:
		log.Fatalf("unknown view %q, use window, terminal or none", *view)
	}

	rep, err := runner.Report(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Epoch %d: healthy=%d infected=%d recovered=%d\n",
		rep.Epoch, rep.Counts.Healthy, rep.Counts.Infected, rep.Counts.Recovered)
	fmt.Printf("Number of collisions: %d\n", rep.Collisions)

	if wantsOutput {
		if err := writeOutputs(runner, cfg, *chartFile, *videoFile, *historyFile, *countsFile); err != nil {
			log.Fatal(err)
		}
	}
}

func runTerminal(ctx context.Context, runner *simulation.Runner) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	err = terminal.New(screen, runner).Run(ctx)
	if ctx.Err() != nil {
		return nil // interrupted, still report what ran
	}
	return err
}

func writeOutputs(runner *simulation.Runner, cfg *simulation.Config, chartFile, videoFile, historyFile, countsFile string) error {
	h := runner.History()
	if chartFile != "" {
		if err := report.WriteStatusChart(chartFile, h, report.DefaultChartOptions()); err != nil {
			return err
		}
		log.Printf("status chart written to %s", chartFile)
	}
	if videoFile != "" {
		opts := report.DefaultVideoOptions()
		opts.FPS = cfg.VideoFPS
		opts.Stride = cfg.FrameStride
		if err := report.WriteVideo(videoFile, h, cfg.Params().Radius(), opts); err != nil {
			return err
		}
		log.Printf("animation written to %s", videoFile)
	}
	if historyFile != "" {
		if err := report.WriteFile(historyFile, h, report.WriteHistoryJSONL); err != nil {
			return err
		}
		log.Printf("history written to %s", historyFile)
	}
	if countsFile != "" {
		if err := report.WriteFile(countsFile, h, report.WriteCountsCSV); err != nil {
			return err
		}
		log.Printf("counts written to %s", countsFile)
	}
	return nil
}
