package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/happi"
	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestList_Empty(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "list", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Fields: none\n")
	require.Contains(t, out, "ParticleBinning in "+dir+": none\n")
}

func TestList_MetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "happi.prom")
	_, err := run(t, "--metrics-textfile", path, "list", t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRoot_BadLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "list", t.TempDir())
	require.ErrorContains(t, err, "invalid --log-level")
}

func TestInfo_MissingResults(t *testing.T) {
	_, err := run(t, "info", "--results", t.TempDir(), "--operation", "Ex")
	require.ErrorIs(t, err, happi.ErrSourceOpen)

	_, err = run(t, "info", "--results", t.TempDir())
	require.ErrorIs(t, err, happi.ErrConfiguration)

	_, err = run(t, "extract", "--operation", "Ex", "--theta", "half")
	require.ErrorContains(t, err, "invalid --theta")
}

func TestTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ParticleBinning0.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)
	ds, err := fw.CreateDataset("/timestep00000020", hdf5.Float64, []uint64{2, 3})
	require.NoError(t, err)
	require.NoError(t, ds.Write([]float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, fw.Close())

	out, err := run(t, "tree", path)
	require.NoError(t, err)
	require.Contains(t, out, "/\n")
	require.Contains(t, out, "  /timestep00000020")

	_, err = run(t, "tree", filepath.Join(t.TempDir(), "missing.h5"))
	require.Error(t, err)
}

func TestMergeDirectives(t *testing.T) {
	m, err := mergeDirectives(nil, []string{"x=[2, 8]", "y=all", " z =1.5"})
	require.NoError(t, err)
	require.Equal(t, axis.Between(2, 8), m["x"].Directive)
	require.Equal(t, axis.All(), m["y"].Directive)
	require.Equal(t, axis.At(1.5), m["z"].Directive)

	_, err = mergeDirectives(nil, []string{"x"})
	require.ErrorContains(t, err, "not label=value")
	_, err = mergeDirectives(nil, []string{"x=[1,2,3,4]"})
	require.Error(t, err)
}

func TestWriteArray(t *testing.T) {
	var buf bytes.Buffer
	writeArray(&buf, ndarray.Scalar(2.5))
	require.Equal(t, "2.5\n", buf.String())

	buf.Reset()
	a, err := ndarray.FromSlice([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)
	require.NoError(t, err)
	writeArray(&buf, a)
	require.Equal(t, "0\t1\n2\t3\n\n4\t5\n6\t7\n", buf.String())
}

func TestJoinInts(t *testing.T) {
	require.Equal(t, "none", joinInts(nil))
	require.Equal(t, "0 3 12", joinInts([]int{0, 3, 12}))
}
