// Package runlog accumulates per-run evaluation results and reports
// statistics at the best-validation epoch of each run.
package runlog

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Metric identifies one of the tracked ranking metrics.
type Metric int

const (
	Hits10 Metric = iota
	Hits50
	Hits100
	numMetrics
)

// Metrics lists every tracked metric in report order.
var Metrics = [...]Metric{Hits10, Hits50, Hits100}

func (m Metric) String() string {
	switch m {
	case Hits10:
		return "Hits@10"
	case Hits50:
		return "Hits@50"
	case Hits100:
		return "Hits@100"
	}
	return "unknown"
}

// K returns the ranking cutoff of the metric.
func (m Metric) K() int {
	switch m {
	case Hits10:
		return 10
	case Hits50:
		return 50
	}
	return 100
}

// Result is the (train, valid, test) value triple of one metric at one
// evaluation point.
type Result struct {
	Train, Valid, Test float64
}

// Results holds one Result per tracked metric, indexed by Metric.
type Results [numMetrics]Result

// Summary is the cross-run aggregate of a metric at best-validation
// epochs.
type Summary struct {
	Runs int // runs with at least one recorded evaluation

	TrainMean, TrainStd float64
	ValidMean, ValidStd float64
	TestMean, TestStd   float64
}

// Logger records the evaluation history of one metric: an append-only
// sequence of result triples per run.
type Logger struct {
	metric  Metric
	history [][]Result
	log     *logrus.Logger
}

// NewLogger builds a history over the given number of runs.
func NewLogger(metric Metric, runs int, log *logrus.Logger) *Logger {
	return &Logger{
		metric:  metric,
		history: make([][]Result, runs),
		log:     log,
	}
}

// AddResult appends one evaluation triple to the run's history.
func (l *Logger) AddResult(run int, r Result) {
	l.history[run] = append(l.history[run], r)
}

// Results returns the run's recorded history in evaluation order. The
// slice is shared with the logger and must not be mutated.
func (l *Logger) Results(run int) []Result {
	return l.history[run]
}

// BestEpoch returns the evaluation index with the highest validation
// value and its triple, or false when the run recorded nothing.
func (l *Logger) BestEpoch(run int) (int, Result, bool) {
	h := l.history[run]
	if len(h) == 0 {
		return 0, Result{}, false
	}
	best := 0
	for i, r := range h {
		if r.Valid > h[best].Valid {
			best = i
		}
	}
	return best, h[best], true
}

// PrintRun reports the run's values at its best-validation epoch.
func (l *Logger) PrintRun(run int) {
	best, r, ok := l.BestEpoch(run)
	if !ok {
		l.log.WithFields(logrus.Fields{
			"metric": l.metric.String(),
			"run":    run + 1,
		}).Warn("no evaluations recorded for run")
		return
	}
	l.log.WithFields(logrus.Fields{
		"metric":     l.metric.String(),
		"run":        run + 1,
		"best_epoch": best + 1,
		"train":      pct(r.Train),
		"valid":      pct(r.Valid),
		"test":       pct(r.Test),
	}).Info("run statistics")
}

// Summary aggregates the best-validation-epoch triples over all runs
// that recorded at least one evaluation. It returns false when no run
// did.
func (l *Logger) Summary() (Summary, bool) {
	var train, valid, test []float64
	for run := range l.history {
		_, r, ok := l.BestEpoch(run)
		if !ok {
			l.log.WithFields(logrus.Fields{
				"metric": l.metric.String(),
				"run":    run + 1,
			}).Warn("excluding run without evaluations from aggregate")
			continue
		}
		train = append(train, r.Train)
		valid = append(valid, r.Valid)
		test = append(test, r.Test)
	}
	if len(valid) == 0 {
		return Summary{}, false
	}
	mean, sd := meanStd(train)
	s := Summary{Runs: len(valid), TrainMean: mean, TrainStd: sd}
	s.ValidMean, s.ValidStd = meanStd(valid)
	s.TestMean, s.TestStd = meanStd(test)
	return s, true
}

// PrintStatistics reports the cross-run aggregate: mean and standard
// deviation of the train, valid and test values at each run's
// best-validation epoch, the last being the final reported metric.
func (l *Logger) PrintStatistics() {
	s, ok := l.Summary()
	if !ok {
		l.log.WithFields(logrus.Fields{
			"metric": l.metric.String(),
		}).Warn("no completed runs to aggregate")
		return
	}
	l.log.WithFields(logrus.Fields{
		"metric":      l.metric.String(),
		"runs":        s.Runs,
		"final_train": pctPM(s.TrainMean, s.TrainStd),
		"final_valid": pctPM(s.ValidMean, s.ValidStd),
		"final_test":  pctPM(s.TestMean, s.TestStd),
	}).Info("all runs")
}

// meanStd computes the sample mean and standard deviation. The std of a
// single value is reported as 0 rather than NaN.
func meanStd(xs []float64) (float64, float64) {
	mean := stat.Mean(xs, nil)
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(xs, nil)
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", 100*v) }

func pctPM(mean, sd float64) string {
	return fmt.Sprintf("%.2f%% ± %.2f%%", 100*mean, 100*sd)
}

// Set bundles one Logger per tracked metric.
type Set struct {
	loggers [numMetrics]*Logger
}

// NewSet builds a logger per metric over the given number of runs.
func NewSet(runs int, log *logrus.Logger) *Set {
	s := &Set{}
	for _, m := range Metrics {
		s.loggers[m] = NewLogger(m, runs, log)
	}
	return s
}

// Logger returns the history of one metric.
func (s *Set) Logger(m Metric) *Logger { return s.loggers[m] }

// AddResults appends one evaluation's triples to every metric history.
func (s *Set) AddResults(run int, res Results) {
	for _, m := range Metrics {
		s.loggers[m].AddResult(run, res[m])
	}
}

// PrintRun reports every metric at the run's best-validation epoch.
func (s *Set) PrintRun(run int) {
	for _, m := range Metrics {
		s.loggers[m].PrintRun(run)
	}
}

// PrintStatistics reports the cross-run aggregate of every metric.
func (s *Set) PrintStatistics() {
	for _, m := range Metrics {
		s.loggers[m].PrintStatistics()
	}
}
