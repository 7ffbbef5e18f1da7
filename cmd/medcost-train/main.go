// Command medcost-train fits the smokers, nonsmokers and all segment models and
// writes their artifacts for medcost-serve.
//
//	medcost-train --training.dataset data/insurance.csv --models.dir models --training.plot_dir plots
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ezoic/medcost/config"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/router"
	"github.com/ezoic/medcost/trainer"
)

func main() {
	fs := pflag.NewFlagSet("medcost-train", pflag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.String("training.dataset", "", "insurance CSV file")
	fs.String("models.dir", "", "artifact output directory")
	fs.String("training.plot_dir", "", "write evaluation charts to this directory")
	fs.Float64("training.test_size", 0, "held-out fraction")
	fs.Uint64("training.seed", 0, "split seed")
	fs.String("log.level", "", "log level")
	gob := fs.Bool("gob", false, "write gob artifacts instead of JSON")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "medcost-train: %v\n", err)
		os.Exit(2)
	}
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := router.FormatJSON
	if *gob {
		format = router.FormatGob
	}
	summary, err := trainer.Run(ctx, trainer.Options{
		Dataset: cfg.Training.Dataset,
		OutDir:  cfg.Models.Dir,
		PlotDir: cfg.Training.PlotDir,
		Format:  format,
		Split:   cfg.SplitOptions(),
	})
	if err != nil {
		log.LogError(err, "Training failed")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "%-11s %6s %6s  %s\n", "segment", "train", "test", "evaluation")
	for _, seg := range summary.Segments {
		fmt.Fprintf(os.Stdout, "%-11s %6d %6d  %s\n", seg.Segment, seg.TrainRows, seg.TestRows, seg.Evaluation)
	}
	fmt.Fprintf(os.Stdout, "artifacts written to %s\n", cfg.Models.Dir)
}
