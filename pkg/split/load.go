package split

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loader assigns contiguous ids to vertex names in order of first
// appearance, shared across all three edge files.
type loader struct {
	vertexHash map[string]int
	vertexKeys []string
}

func (ld *loader) getOrCreateVertex(name string) int {
	if vid, exists := ld.vertexHash[name]; exists {
		return vid
	}
	vid := len(ld.vertexKeys)
	ld.vertexHash[name] = vid
	ld.vertexKeys = append(ld.vertexKeys, name)
	return vid
}

// LoadFiles builds a Split from a train edge file and labeled valid and
// test edge files. Train lines are "src dst"; valid and test lines are
// "src dst label" with label 0 or 1. Blank lines and lines starting
// with '#' are skipped, extra columns ignored. The loaded split is
// validated before it is returned.
func LoadFiles(trainPath, validPath, testPath string) (*Split, error) {
	ld := &loader{vertexHash: make(map[string]int)}

	train, _, err := ld.loadEdges(trainPath, false)
	if err != nil {
		return nil, err
	}
	valid, validLabel, err := ld.loadEdges(validPath, true)
	if err != nil {
		return nil, err
	}
	test, testLabel, err := ld.loadEdges(testPath, true)
	if err != nil {
		return nil, err
	}

	s := &Split{
		NumNodes:   len(ld.vertexKeys),
		Train:      train,
		Valid:      valid,
		Test:       test,
		ValidLabel: validLabel,
		TestLabel:  testLabel,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (ld *loader) loadEdges(filename string, labeled bool) ([][2]int, []int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	want := 2
	if labeled {
		want = 3
	}

	var edges [][2]int
	var labels []int
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < want {
			return nil, nil, fmt.Errorf("%s:%d: expected at least %d fields, got %d",
				filename, lineNo, want, len(parts))
		}

		src := ld.getOrCreateVertex(parts[0])
		dst := ld.getOrCreateVertex(parts[1])
		edges = append(edges, [2]int{src, dst})

		if labeled {
			lbl, err := strconv.Atoi(parts[2])
			if err != nil || (lbl != 0 && lbl != 1) {
				return nil, nil, fmt.Errorf("%s:%d: label %q is not 0 or 1",
					filename, lineNo, parts[2])
			}
			labels = append(labels, lbl)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return edges, labels, nil
}
