package academic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewTransitions(t *testing.T) {
	list := ListView()
	assert.Equal(t, ViewList, list.Kind())

	detail, err := list.Open("s1")
	require.NoError(t, err)
	assert.Equal(t, ViewDetail, detail.Kind())
	assert.Equal(t, "s1", detail.StudentID())

	perf, err := detail.ShowPerformance()
	require.NoError(t, err)
	assert.Equal(t, ViewPerformance, perf.Kind())

	back, err := perf.Back()
	require.NoError(t, err)
	assert.Equal(t, detail, back)

	home, err := back.Back()
	require.NoError(t, err)
	assert.Equal(t, ViewList, home.Kind())
	assert.Empty(t, home.StudentID())
}

func TestInvalidViewTransitions(t *testing.T) {
	_, err := ListView().ShowPerformance()
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = ListView().Back()
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	detail, _ := ListView().Open("s1")
	_, err = detail.Open("s2")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = ListView().Open("")
	assert.Error(t, err)
}

func TestResolveView(t *testing.T) {
	v, err := ResolveView(ViewPerformance, "s1")
	require.NoError(t, err)
	assert.Equal(t, ViewPerformance, v.Kind())

	_, err = ResolveView(ViewDetail, "")
	assert.Error(t, err)

	_, err = ResolveView("grid", "s1")
	assert.Error(t, err)
}
