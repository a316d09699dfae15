package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/jetres/rootout"
)

func TestRunClosesOutputOnInputError(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.root")

	err := run(context.Background(), options{
		output:     output,
		plotFormat: "png",
		inputs:     []string{filepath.Join(dir, "missing.slcio")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.slcio")

	f, err := groot.Open(output)
	require.NoError(t, err, "output must be a complete ROOT file")
	defer f.Close()
	obj, err := f.Get(rootout.TreeName)
	require.NoError(t, err)
	tree, ok := obj.(rtree.Tree)
	require.True(t, ok)
	assert.Equal(t, int64(0), tree.Entries())
}

func TestRunRejectsBadConfigBeforeCreatingOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.root")
	err := run(context.Background(), options{output: output, method: 9})
	require.Error(t, err)

	_, err = groot.Open(output)
	assert.Error(t, err)
}
