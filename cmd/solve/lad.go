package solve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// readLADFile reads a graph in LAD format: the first number is the
// vertex count, then one record per vertex giving its degree followed
// by that many neighbour indices. Tokens may be split across lines.
func readLADFile(path string, directed bool) (*homsearch.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := readLAD(f, directed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func readLAD(r io.Reader, directed bool) (*homsearch.Graph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	next := func() (int, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.Atoi(scanner.Text())
	}

	n, err := next()
	if err != nil {
		return nil, fmt.Errorf("reading vertex count: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("negative vertex count %d", n)
	}

	g := homsearch.NewGraph(n, directed)
	for v := 0; v < n; v++ {
		degree, err := next()
		if err != nil {
			return nil, fmt.Errorf("reading degree of vertex %d: %w", v, err)
		}
		for i := 0; i < degree; i++ {
			w, err := next()
			if err != nil {
				return nil, fmt.Errorf("reading neighbour %d of vertex %d: %w", i, v, err)
			}
			if w < 0 || w >= n {
				return nil, fmt.Errorf("vertex %d has out-of-range neighbour %d", v, w)
			}
			g.AddEdge(v, w)
		}
	}
	return g, nil
}

// parseLessThan parses an "a<b" ordering constraint over pattern
// vertex indices.
func parseLessThan(s string, patternSize int) ([2]int, error) {
	parts := strings.SplitN(s, "<", 2)
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("malformed less-than constraint %q, want a<b", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return [2]int{}, fmt.Errorf("malformed less-than constraint %q: %w", s, err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return [2]int{}, fmt.Errorf("malformed less-than constraint %q: %w", s, err)
	}
	if a < 0 || a >= patternSize || b < 0 || b >= patternSize {
		return [2]int{}, fmt.Errorf("less-than constraint %q out of range", s)
	}
	return [2]int{a, b}, nil
}
