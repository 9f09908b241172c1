package mf

import (
	"math"
	"math/rand"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/linkpred/internal/config"
	"github.com/cnclabs/linkpred/pkg/nn"
	"github.com/cnclabs/linkpred/pkg/runlog"
	"github.com/cnclabs/linkpred/pkg/split"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.NumLayers = 2
	cfg.HiddenChannels = 8
	cfg.Dropout = 0
	cfg.BatchSize = 16
	cfg.Epochs = 2
	cfg.EvalSteps = 1
	cfg.Runs = 1
	return cfg
}

func smallSplit(rng *rand.Rand) *split.Split {
	return split.Synthetic(100, 50, 20, 20, rng)
}

func TestEndToEndSmallRun(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rng := rand.New(rand.NewSource(1))
	ctx := nn.NewContext(nn.CPU(), rng)

	loggers, err := Run(smallConfig(), smallSplit(rng), ctx, log)
	require.NoError(t, err)

	for _, metric := range runlog.Metrics {
		l := loggers.Logger(metric)
		history := l.Results(0)
		require.Len(t, history, 2, "%s: one evaluation per epoch", metric)

		for _, r := range history {
			for _, v := range []float64{r.Train, r.Valid, r.Test} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}

		best, r, ok := l.BestEpoch(0)
		require.True(t, ok)
		want := 0
		if history[1].Valid > history[0].Valid {
			want = 1
		}
		assert.Equal(t, want, best)
		assert.Equal(t, history[want], r)
	}
}

func TestTrainEpochReturnsFiniteLoss(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rng := rand.New(rand.NewSource(2))
	ctx := nn.NewContext(nn.CPU(), rng)
	cfg := smallConfig()
	ds := smallSplit(rng)

	m := New(ds.NumNodes, cfg, ctx)
	m.Reset()

	loss := m.TrainEpoch(ds.Train, cfg.BatchSize, log)
	assert.False(t, math.IsNaN(loss))
	assert.False(t, math.IsInf(loss, 0))
	assert.Greater(t, loss, 0.0)
}

func TestEvaluateReturnsEveryMetricInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := smallConfig()
	ds := smallSplit(rng)

	m := New(ds.NumNodes, cfg, nn.NewContext(nn.CPU(), rng))
	m.Reset()

	res := m.Evaluate(ds, cfg.BatchSize)
	for _, metric := range runlog.Metrics {
		r := res[metric]
		for _, v := range []float64{r.Train, r.Valid, r.Test} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

// Evaluation scores in unshuffled batches and must preserve edge order,
// so batch size must not change the result.
func TestEvaluateIndependentOfBatchSize(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	cfg := smallConfig()
	ds := smallSplit(rng)

	m := New(ds.NumNodes, cfg, nn.NewContext(nn.CPU(), rng))
	m.Reset()

	whole := m.Evaluate(ds, 1000)
	chunked := m.Evaluate(ds, 7)
	for _, metric := range runlog.Metrics {
		assert.InDelta(t, whole[metric].Valid, chunked[metric].Valid, 1e-9)
		assert.InDelta(t, whole[metric].Test, chunked[metric].Test, 1e-9)
	}
}

func TestResetMakesRunsStartFresh(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cfg := smallConfig()
	ds := smallSplit(rng)

	m := New(ds.NumNodes, cfg, nn.NewContext(nn.CPU(), rng))
	m.Reset()
	before := make([]float64, 8)
	copy(before, m.Emb.Row(0))

	m.Reset()
	assert.NotEqual(t, before, m.Emb.Row(0))
}

func TestRunRejectsMalformedSplit(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rng := rand.New(rand.NewSource(6))
	ctx := nn.NewContext(nn.CPU(), rng)

	ds := smallSplit(rng)
	ds.ValidLabel = ds.ValidLabel[:3]

	_, err := Run(smallConfig(), ds, ctx, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid labels")
}
