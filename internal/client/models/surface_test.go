package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurface_MaxFileSize(t *testing.T) {
	assert.EqualValues(t, 10<<20, SurfacePanel.MaxFileSize())
	assert.EqualValues(t, 20<<20, SurfaceCenter.MaxFileSize())
	assert.EqualValues(t, 50<<20, SurfaceCategory.MaxFileSize())
}

func TestParseSurface(t *testing.T) {
	s, err := ParseSurface("center")
	require.NoError(t, err)
	assert.Equal(t, SurfaceCenter, s)

	_, err = ParseSurface("sidebar")
	assert.Error(t, err)
}
