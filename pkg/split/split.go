// Package split holds the benchmark edge split consumed by training:
// positive train edges plus labeled valid and test edge sets.
package split

import "fmt"

// Split is the edge split. Valid and Test carry parallel 0/1 label
// sequences partitioning their edges into positives and negatives.
// All node ids are 0-indexed within [0, NumNodes).
type Split struct {
	NumNodes int

	Train [][2]int
	Valid [][2]int
	Test  [][2]int

	ValidLabel []int
	TestLabel  []int
}

// Validate checks the split for structural problems. Anything it
// reports is a fatal configuration error and must be surfaced before
// training starts.
func (s *Split) Validate() error {
	if s.NumNodes <= 0 {
		return fmt.Errorf("split: node count must be positive, got %d", s.NumNodes)
	}
	if len(s.Train) == 0 {
		return fmt.Errorf("split: train edge set is empty")
	}
	if s.Valid == nil || s.Test == nil {
		return fmt.Errorf("split: valid and test edge sets are required")
	}
	if len(s.ValidLabel) != len(s.Valid) {
		return fmt.Errorf("split: %d valid labels for %d valid edges",
			len(s.ValidLabel), len(s.Valid))
	}
	if len(s.TestLabel) != len(s.Test) {
		return fmt.Errorf("split: %d test labels for %d test edges",
			len(s.TestLabel), len(s.Test))
	}
	if err := checkLabels("valid", s.ValidLabel); err != nil {
		return err
	}
	if err := checkLabels("test", s.TestLabel); err != nil {
		return err
	}
	for _, set := range []struct {
		name  string
		edges [][2]int
	}{
		{"train", s.Train},
		{"valid", s.Valid},
		{"test", s.Test},
	} {
		if err := s.checkRange(set.name, set.edges); err != nil {
			return err
		}
	}
	return nil
}

func (s *Split) checkRange(name string, edges [][2]int) error {
	for i, e := range edges {
		for _, v := range e {
			if v < 0 || v >= s.NumNodes {
				return fmt.Errorf("split: %s edge %d references node %d outside [0, %d)",
					name, i, v, s.NumNodes)
			}
		}
	}
	return nil
}

func checkLabels(name string, labels []int) error {
	for i, lbl := range labels {
		if lbl != 0 && lbl != 1 {
			return fmt.Errorf("split: %s label %d is %d, want 0 or 1", name, i, lbl)
		}
	}
	return nil
}
