// Command linkpred trains and evaluates a matrix-factorization link
// predictor on an edge-split benchmark, reporting Hits@{10,50,100}
// across multiple runs.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cnclabs/linkpred/internal/config"
	"github.com/cnclabs/linkpred/internal/models/mf"
	"github.com/cnclabs/linkpred/pkg/nn"
	"github.com/cnclabs/linkpred/pkg/split"
)

const (
	synthNodes = 10000
	synthTrain = 20000
	synthEval  = 2000
)

var (
	cfgPath   string
	synthetic bool
	verbose   bool

	// flagCfg receives the flag values; the effective config is
	// assembled in runTraining so an explicit flag always overrides
	// the YAML file.
	flagCfg = config.Default()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkpred",
		Short: "Train a matrix-factorization link predictor",
		Long: `linkpred jointly trains node embeddings and an MLP edge scorer against
randomly sampled negatives, then reports Hits@{10,50,100} at the
best-validation epoch of every run.`,
		RunE:          runTraining,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgPath, "config", "", "YAML config file; explicit flags override its values")
	flags.IntVar(&flagCfg.NumLayers, "num_layers", flagCfg.NumLayers, "affine layers in the scorer (>= 2)")
	flags.IntVar(&flagCfg.HiddenChannels, "hidden_channels", flagCfg.HiddenChannels, "embedding and hidden width")
	flags.Float64Var(&flagCfg.Dropout, "dropout", flagCfg.Dropout, "dropout probability in [0, 1)")
	flags.IntVar(&flagCfg.BatchSize, "batch_size", flagCfg.BatchSize, "training and evaluation batch size")
	flags.Float64Var(&flagCfg.LR, "lr", flagCfg.LR, "Adam step size")
	flags.IntVar(&flagCfg.Epochs, "epochs", flagCfg.Epochs, "training epochs per run")
	flags.IntVar(&flagCfg.EvalSteps, "eval_steps", flagCfg.EvalSteps, "evaluate every this many epochs")
	flags.IntVar(&flagCfg.LogSteps, "log_steps", flagCfg.LogSteps, "report every this many epochs")
	flags.IntVar(&flagCfg.Runs, "runs", flagCfg.Runs, "independent restarts")
	flags.IntVar(&flagCfg.Device, "device", flagCfg.Device, "accelerator index, -1 for CPU")
	flags.Int64Var(&flagCfg.Seed, "seed", 0, "random seed, 0 for time-based")
	flags.StringVar(&flagCfg.TrainPath, "train", "", "train edge file (src dst per line)")
	flags.StringVar(&flagCfg.ValidPath, "valid", "", "valid edge file (src dst label per line)")
	flags.StringVar(&flagCfg.TestPath, "test", "", "test edge file (src dst label per line)")
	flags.BoolVar(&synthetic, "synthetic", false, "train on a random synthetic split instead of files")
	flags.BoolVar(&verbose, "verbose", false, "log every batch loss")
	return cmd
}

// effectiveConfig layers defaults, the optional YAML file and every
// explicitly passed flag, in that order.
func effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		if err := cfg.LoadFile(cfgPath); err != nil {
			return cfg, err
		}
	}
	overlay := map[string]func(){
		"num_layers":      func() { cfg.NumLayers = flagCfg.NumLayers },
		"hidden_channels": func() { cfg.HiddenChannels = flagCfg.HiddenChannels },
		"dropout":         func() { cfg.Dropout = flagCfg.Dropout },
		"batch_size":      func() { cfg.BatchSize = flagCfg.BatchSize },
		"lr":              func() { cfg.LR = flagCfg.LR },
		"epochs":          func() { cfg.Epochs = flagCfg.Epochs },
		"eval_steps":      func() { cfg.EvalSteps = flagCfg.EvalSteps },
		"log_steps":       func() { cfg.LogSteps = flagCfg.LogSteps },
		"runs":            func() { cfg.Runs = flagCfg.Runs },
		"device":          func() { cfg.Device = flagCfg.Device },
		"seed":            func() { cfg.Seed = flagCfg.Seed },
		"train":           func() { cfg.TrainPath = flagCfg.TrainPath },
		"valid":           func() { cfg.ValidPath = flagCfg.ValidPath },
		"test":            func() { cfg.TestPath = flagCfg.TestPath },
	}
	for name, apply := range overlay {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}

func runTraining(cmd *cobra.Command, _ []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	device, fellBack := nn.ResolveDevice(cfg.Device)
	if fellBack {
		log.WithField("device", cfg.Device).Warn("accelerator unavailable, falling back to cpu")
	}

	var ds *split.Split
	switch {
	case synthetic:
		ds = split.Synthetic(synthNodes, synthTrain, synthEval, synthEval, rng)
		log.WithFields(logrus.Fields{
			"nodes": synthNodes, "train": synthTrain, "valid": synthEval, "test": synthEval,
		}).Info("generated synthetic split")
	case cfg.TrainPath == "" || cfg.ValidPath == "" || cfg.TestPath == "":
		return fmt.Errorf("train, valid and test files are required unless --synthetic is set")
	default:
		ds, err = split.LoadFiles(cfg.TrainPath, cfg.ValidPath, cfg.TestPath)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"nodes": ds.NumNodes, "train": len(ds.Train),
			"valid": len(ds.Valid), "test": len(ds.Test),
		}).Info("loaded split")
	}

	log.WithFields(logrus.Fields{
		"num_layers":      cfg.NumLayers,
		"hidden_channels": cfg.HiddenChannels,
		"dropout":         cfg.Dropout,
		"batch_size":      cfg.BatchSize,
		"lr":              cfg.LR,
		"epochs":          cfg.Epochs,
		"eval_steps":      cfg.EvalSteps,
		"log_steps":       cfg.LogSteps,
		"runs":            cfg.Runs,
		"device":          device.String(),
		"seed":            seed,
	}).Info("configuration")

	_, err = mf.Run(cfg, ds, nn.NewContext(device, rng), log)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
