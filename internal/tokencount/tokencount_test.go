package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneEstimatorEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0, RuneEstimator{}.Count(""))
}

func TestRuneEstimatorFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, RuneEstimator{}.Count("hi"))
}

func TestRuneEstimatorScalesWithLength(t *testing.T) {
	short := RuneEstimator{}.Count("a short phrase")
	long := RuneEstimator{}.Count("a much longer phrase that repeats several times over and over")
	assert.Greater(t, long, short)
}

func TestTiktokenEstimatorFallsBackOnUnknownModel(t *testing.T) {
	est := NewTiktokenEstimator("not-a-real-model-name-xyz")
	assert.NotNil(t, est)
	// Whatever it resolved to (tiktoken cl100k_base or the rune fallback),
	// it must return a positive count for non-empty text.
	assert.Greater(t, est.Count("hello world"), 0)
}
