// Package mf trains a matrix-factorization link predictor: a jointly
// learned node embedding table scored by an MLP over endpoint pairs,
// optimized against randomly sampled negatives and evaluated with
// Hits@K over labeled valid and test edge sets.
package mf

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cnclabs/linkpred/internal/config"
	"github.com/cnclabs/linkpred/internal/models/mlp"
	"github.com/cnclabs/linkpred/pkg/eval"
	"github.com/cnclabs/linkpred/pkg/nn"
	"github.com/cnclabs/linkpred/pkg/runlog"
	"github.com/cnclabs/linkpred/pkg/sampler"
	"github.com/cnclabs/linkpred/pkg/split"
)

// epsLoss floors the log arguments against saturated probabilities.
const epsLoss = 1e-15

// Model owns the per-run training state: the embedding table, the
// scorer and the optimizer updating both jointly.
type Model struct {
	Emb  *nn.Embedding
	Pred *mlp.LinkPredictor
	Opt  *nn.Adam

	ctx *nn.Context
	lr  float64
}

// New builds a model for numNodes nodes. Call Reset before the first
// epoch.
func New(numNodes int, cfg config.Config, ctx *nn.Context) *Model {
	return &Model{
		Emb:  nn.NewEmbedding(numNodes, cfg.HiddenChannels),
		Pred: mlp.New(cfg.HiddenChannels, cfg.HiddenChannels, cfg.NumLayers, cfg.Dropout, ctx),
		ctx:  ctx,
		lr:   cfg.LR,
	}
}

// Reset reinitializes the embedding table and scorer weights and
// discards all optimizer state, starting a fresh run.
func (m *Model) Reset() {
	m.Emb.ResetParameters(m.ctx.RNG)
	m.Pred.ResetParameters()
	params := append(m.Emb.Parameters(), m.Pred.Parameters()...)
	m.Opt = nn.NewAdam(m.lr, params...)
}

// TrainEpoch runs one pass over the train edges in freshly shuffled
// batches, pairing each with newly drawn negatives, and returns the
// batch-size-weighted mean loss.
func (m *Model) TrainEpoch(train [][2]int, batchSize int, log *logrus.Logger) float64 {
	m.Pred.SetTraining(true)

	totalLoss, totalExamples := 0.0, 0.0
	for _, batch := range sampler.Batches(len(train), batchSize, true, m.ctx.RNG) {
		m.Opt.ZeroGrad()

		pos := make([][2]int, len(batch))
		for i, idx := range batch {
			pos[i] = train[idx]
		}
		posLoss := m.backwardBatch(pos, true)

		neg := sampler.NegativeEdges(m.Emb.NumNodes, sampler.NegPerPos*len(batch), m.ctx.RNG)
		negLoss := m.backwardBatch(neg, false)

		m.Opt.Step()

		loss := posLoss + negLoss
		log.WithField("batch_loss", loss).Debug("train step")
		totalLoss += loss * float64(len(batch))
		totalExamples += float64(len(batch))
	}
	return totalLoss / totalExamples
}

// backwardBatch scores the edges, accumulates the gradients of one
// contrastive loss term and returns its value: -mean log(p+eps) for
// positives, -mean log(1-p+eps) for negatives.
func (m *Model) backwardBatch(edges [][2]int, positive bool) float64 {
	src := make([]int, len(edges))
	dst := make([]int, len(edges))
	for i, e := range edges {
		src[i], dst[i] = e[0], e[1]
	}
	out := m.Pred.Forward(m.Emb.Rows(src), m.Emb.Rows(dst))

	n := float64(len(out))
	loss := 0.0
	dOut := make([]float64, len(out))
	for i, p := range out {
		if positive {
			loss -= math.Log(p + epsLoss)
			dOut[i] = -1 / (n * (p + epsLoss))
		} else {
			loss -= math.Log(1 - p + epsLoss)
			dOut[i] = 1 / (n * (1 - p + epsLoss))
		}
	}
	loss /= n

	du, dv := m.Pred.Backward(dOut)
	for i := range edges {
		m.Emb.AccumulateGrad(src[i], du[i])
		m.Emb.AccumulateGrad(dst[i], dv[i])
	}
	return loss
}

// Evaluate scores every edge set in inference mode and computes Hits@K
// for each tracked metric. Train positives are ranked against the
// valid negatives; the benchmark protocol defines it that way and the
// asymmetry is kept on purpose.
func (m *Model) Evaluate(ds *split.Split, batchSize int) runlog.Results {
	m.Pred.SetTraining(false)

	trainPred := m.score(ds.Train, batchSize)
	validPred := m.score(ds.Valid, batchSize)
	testPred := m.score(ds.Test, batchSize)

	posValid, negValid := partition(validPred, ds.ValidLabel)
	posTest, negTest := partition(testPred, ds.TestLabel)

	var res runlog.Results
	for _, metric := range runlog.Metrics {
		k := metric.K()
		res[metric] = runlog.Result{
			Train: eval.HitsAtK(trainPred, negValid, k),
			Valid: eval.HitsAtK(posValid, negValid, k),
			Test:  eval.HitsAtK(posTest, negTest, k),
		}
	}
	return res
}

// score runs the edge set through the scorer in fixed, unshuffled
// batches, preserving edge order.
func (m *Model) score(edges [][2]int, batchSize int) []float64 {
	out := make([]float64, 0, len(edges))
	for _, batch := range sampler.Batches(len(edges), batchSize, false, nil) {
		src := make([]int, len(batch))
		dst := make([]int, len(batch))
		for i, idx := range batch {
			src[i], dst[i] = edges[idx][0], edges[idx][1]
		}
		out = append(out, m.Pred.Forward(m.Emb.Rows(src), m.Emb.Rows(dst))...)
	}
	return out
}

// partition splits predictions into positives and negatives by the
// parallel label sequence.
func partition(pred []float64, labels []int) (pos, neg []float64) {
	for i, p := range pred {
		if labels[i] == 1 {
			pos = append(pos, p)
		} else {
			neg = append(neg, p)
		}
	}
	return pos, neg
}

// Run executes the full multi-run experiment: per run, reset the
// parameters and train for the configured epochs, evaluating on the
// eval_steps cadence and reporting on the log_steps cadence. It
// returns the metric histories after printing per-run and aggregate
// statistics.
func Run(cfg config.Config, ds *split.Split, ctx *nn.Context, log *logrus.Logger) (*runlog.Set, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	model := New(ds.NumNodes, cfg, ctx)
	loggers := runlog.NewSet(cfg.Runs, log)

	for run := 0; run < cfg.Runs; run++ {
		model.Reset()
		for epoch := 1; epoch <= cfg.Epochs; epoch++ {
			loss := model.TrainEpoch(ds.Train, cfg.BatchSize, log)

			if epoch%cfg.EvalSteps != 0 {
				continue
			}
			res := model.Evaluate(ds, cfg.BatchSize)
			loggers.AddResults(run, res)

			if epoch%cfg.LogSteps != 0 {
				continue
			}
			for _, metric := range runlog.Metrics {
				r := res[metric]
				log.WithFields(logrus.Fields{
					"metric": metric.String(),
					"run":    run + 1,
					"epoch":  epoch,
					"loss":   fmt.Sprintf("%.4f", loss),
					"train":  fmt.Sprintf("%.2f%%", 100*r.Train),
					"valid":  fmt.Sprintf("%.2f%%", 100*r.Valid),
					"test":   fmt.Sprintf("%.2f%%", 100*r.Test),
				}).Info("eval")
			}
		}
		loggers.PrintRun(run)
	}
	loggers.PrintStatistics()
	return loggers, nil
}
