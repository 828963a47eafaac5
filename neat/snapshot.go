package neat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SnapshotExt is the file extension of genome snapshots.
const SnapshotExt = ".nnet"

// snapshotTimeLayout names snapshot files by wall clock, e.g. genome_2024-05-01_13-04-05.nnet.
const snapshotTimeLayout = "2006-01-02_15-04-05"

// SnapshotFileName derives the snapshot file name from a point in time.
func SnapshotFileName(t time.Time) string {
	return "genome_" + t.Format(snapshotTimeLayout) + SnapshotExt
}

// WriteSnapshot writes the genome as seven labeled, position-aligned arrays:
// three describing neurons and four describing connections, both in genome
// order. There is no matching reader; snapshots are for inspection only.
func WriteSnapshot(w io.Writer, g *Genome) error {
	ids := make([]string, len(g.Neurons))
	kinds := make([]string, len(g.Neurons))
	biases := make([]string, len(g.Neurons))
	for i, n := range g.Neurons {
		ids[i] = strconv.Itoa(n.ID)
		kinds[i] = strconv.Quote(n.Kind.String())
		biases[i] = formatFloat(n.Bias)
	}

	enabled := make([]string, len(g.Connections))
	from := make([]string, len(g.Connections))
	to := make([]string, len(g.Connections))
	weights := make([]string, len(g.Connections))
	for i, c := range g.Connections {
		enabled[i] = strconv.FormatBool(c.Enabled)
		from[i] = strconv.Itoa(c.From)
		to[i] = strconv.Itoa(c.To)
		weights[i] = formatFloat(c.Weight)
	}

	bw := bufio.NewWriter(w)
	for _, line := range []struct {
		label  string
		values []string
	}{
		{"neuron ids", ids},
		{"neuron types", kinds},
		{"biases", biases},
		{"enabled", enabled},
		{"from neurons", from},
		{"to neurons", to},
		{"weights", weights},
	} {
		if _, err := fmt.Fprintf(bw, "%s: [%s]\n", line.label, strings.Join(line.values, ", ")); err != nil {
			return fmt.Errorf("failed to write %s: %w", line.label, err)
		}
	}
	return bw.Flush()
}

// SaveSnapshot writes the genome to a new snapshot file in dir, named after
// now, and returns the file path.
func SaveSnapshot(dir string, g *Genome, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory '%s': %w", dir, err)
	}
	path := filepath.Join(dir, SnapshotFileName(now))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file '%s': %w", path, err)
	}
	if err := WriteSnapshot(file, g); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write snapshot '%s': %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot '%s': %w", path, err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
