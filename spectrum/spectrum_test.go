package spectrum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func linearTable(header []string, n int) [][]string {
	table := [][]string{header}
	for i := 1; i <= n; i++ {
		table = append(table, []string{fmt.Sprint(i), fmt.Sprint(i * 2)})
	}
	return table
}

func TestCleanDropsInvalidAndSorts(t *testing.T) {
	freqs := []float64{5, 1, math.NaN(), 3, -1, 0, 2, 4, math.Inf(1), 6, 7, 8, 9, 10}
	mags := []float64{50, 10, 1, 30, 1, 1, -2, 40, 1, 60, 70, 80, 90, 100}

	w, err := Clean("w", freqs, mags, 5)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3, 4, 5, 6, 7, 8, 9, 10}, w.Frequencies)
	assert.Equal(t, []float64{10, 30, 40, 50, 60, 70, 80, 90, 100}, w.Magnitudes)
	assert.Equal(t, 5, w.Dropped)

	lo, hi := w.Band()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 10.0, hi)
}

func TestCleanKeepsOrderOfEqualFrequencies(t *testing.T) {
	freqs := []float64{2, 1, 2, 3}
	mags := []float64{20, 10, 21, 30}

	w, err := Clean("dup", freqs, mags, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 21, 30}, w.Magnitudes)
}

func TestCleanTooFewSamples(t *testing.T) {
	freqs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	mags := make([]float64, len(freqs))

	_, err := Clean("short", freqs, mags, DefaultMinSamples)
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, err = Clean("mismatch", []float64{1, 2}, []float64{1}, 1)
	assert.Error(t, err)
}

func TestDetectColumns(t *testing.T) {
	rows := [][]string{{"1", "a", "2", "3"}, {"2", "b", "3", "4"}}

	t.Run("known names", func(t *testing.T) {
		fi, si, err := DetectColumns([]string{"idx", "Power", "junk", "Freq"}, rows, ColumnOptions{})
		require.NoError(t, err)
		assert.Equal(t, 3, fi)
		assert.Equal(t, 1, si)
	})

	t.Run("explicit names", func(t *testing.T) {
		fi, si, err := DetectColumns([]string{"x", "y", "z", "w"}, rows,
			ColumnOptions{FrequencyColumn: "z", MagnitudeColumn: "w"})
		require.NoError(t, err)
		assert.Equal(t, 2, fi)
		assert.Equal(t, 3, si)
	})

	t.Run("first numeric columns", func(t *testing.T) {
		fi, si, err := DetectColumns([]string{"x", "label", "y", "z"}, rows, ColumnOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, fi)
		assert.Equal(t, 2, si)
	})

	t.Run("first two columns", func(t *testing.T) {
		fi, si, err := DetectColumns([]string{"a", "b"}, [][]string{{"x", "y"}}, ColumnOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, fi)
		assert.Equal(t, 1, si)
	})

	t.Run("single column", func(t *testing.T) {
		_, _, err := DetectColumns([]string{"a"}, nil, ColumnOptions{})
		assert.ErrorIs(t, err, ErrNoColumns)
	})
}

func TestReadCSV(t *testing.T) {
	var b strings.Builder
	b.WriteString("# exported spectrum\nhz,psd\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "%d,%d\n", 13-i, i)
	}
	b.WriteString("oops,1\n")

	l := NewLoader(DefaultLoadOptions())
	w, err := l.ReadCSV("w.csv", strings.NewReader(b.String()))
	require.NoError(t, err)

	assert.Equal(t, 12, w.Len())
	assert.Equal(t, 1, w.Dropped)
	assert.Equal(t, "hz", w.FrequencyColumn)
	assert.Equal(t, "psd", w.MagnitudeColumn)
	assert.Equal(t, 1.0, w.Frequencies[0])
	assert.Equal(t, 12.0, w.Magnitudes[0])
}

func TestReadCSVEmpty(t *testing.T) {
	l := NewLoader(DefaultLoadOptions())
	_, err := l.ReadCSV("empty.csv", strings.NewReader("freq,value\n"))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range linearTable([]string{"frequency", "amplitude"}, 15) {
		cells := []interface{}{row[0], row[1]}
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &cells))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l := NewLoader(DefaultLoadOptions())
	w, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "sheet.xlsx", w.ID)
	assert.Equal(t, path, w.Source)
	assert.Equal(t, 15, w.Len())
	assert.Equal(t, 30.0, w.Magnitudes[14])
}

func writeTable(t *testing.T, path string, table [][]string) {
	t.Helper()
	var b strings.Builder
	for _, row := range table {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestLoadDirSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, filepath.Join(dir, "b.csv"), linearTable([]string{"f", "s"}, 20))
	writeTable(t, filepath.Join(dir, "a.csv"), linearTable([]string{"f", "s"}, 11))
	writeTable(t, filepath.Join(dir, "short.csv"), linearTable([]string{"f", "s"}, 4))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	l := NewLoader(DefaultLoadOptions())
	windows, failures, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, windows, 2)
	assert.Equal(t, "a.csv", windows[0].ID)
	assert.Equal(t, "b.csv", windows[1].ID)

	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "short.csv"), failures[0].Path)
	assert.True(t, errors.Is(failures[0].Err, ErrTooFewSamples))
}

func TestLoadDirMissing(t *testing.T) {
	l := NewLoader(DefaultLoadOptions())
	_, _, err := l.LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	ok, err := HasSupportedFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, filepath.Join(dir, "a.csv"), linearTable([]string{"f", "s"}, 20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(DefaultLoadOptions())
	_, _, err := l.LoadDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizeDeterministic(t *testing.T) {
	p := DefaultSynthParams()
	p.Files = 3
	p.Points = 400

	a, err := Synthesize(p)
	require.NoError(t, err)
	b, err := Synthesize(p)
	require.NoError(t, err)

	require.Len(t, a, 3)
	assert.Equal(t, "synthetic_window_01.csv", a[0].ID)
	for i := range a {
		assert.Equal(t, a[i].Magnitudes, b[i].Magnitudes)
		assert.Equal(t, 400, a[i].Len())
		for _, m := range a[i].Magnitudes {
			assert.GreaterOrEqual(t, m, 0.0)
		}
	}
	assert.NotEqual(t, a[0].Magnitudes, a[1].Magnitudes)

	p.Seed = 7
	c, err := Synthesize(p)
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Magnitudes, c[0].Magnitudes)
}

func TestSynthesizeRejectsBadParams(t *testing.T) {
	p := DefaultSynthParams()
	p.FMin = 0
	_, err := Synthesize(p)
	assert.Error(t, err)

	p = DefaultSynthParams()
	p.Files = 0
	_, err = Synthesize(p)
	assert.Error(t, err)
}

func TestWriteSyntheticRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spectra")
	p := DefaultSynthParams()
	p.Files = 4
	p.Points = 300

	paths, err := WriteSynthetic(dir, p)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	ok, err := HasSupportedFiles(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	l := NewLoader(DefaultLoadOptions())
	windows, failures, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, windows, 4)

	want, err := Synthesize(p)
	require.NoError(t, err)
	for i, w := range windows {
		assert.Equal(t, want[i].ID, w.ID)
		assert.Equal(t, "freq", w.FrequencyColumn)
		assert.Equal(t, "value", w.MagnitudeColumn)
		assert.InDeltaSlice(t, want[i].Magnitudes, w.Magnitudes, 1e-12)
	}
}

func TestFromPCM(t *testing.T) {
	const sampleRate = 8000
	pcm := make([]float64, 4096)
	for i := range pcm {
		pcm[i] = 0.5 + math.Sin(2*math.Pi*250*float64(i)/sampleRate)
	}

	opts := DefaultLoadOptions()
	opts.FrameSize = 1024
	l := NewLoader(opts)

	w, err := l.FromPCM("tone.wav", pcm, sampleRate)
	require.NoError(t, err)
	assert.Equal(t, 512, w.Len())

	peak := 0
	for i, m := range w.Magnitudes {
		if m > w.Magnitudes[peak] {
			peak = i
		}
	}
	assert.InDelta(t, 250.0, w.Frequencies[peak], 1e-9)

	opts.Window = "triangle"
	_, err = NewLoader(opts).FromPCM("bad.wav", pcm, sampleRate)
	assert.Error(t, err)
}
