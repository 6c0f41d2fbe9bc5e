package collision_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/segreader/internal/collision"
	"github.com/arloliu/segreader/pkg/errs"
)

func TestTrack_NoCollision(t *testing.T) {
	tr := collision.NewTracker()
	require.NoError(t, tr.Track("x", 1))
	require.NoError(t, tr.Track("y", 2))
	assert.Equal(t, 2, tr.Count())
}

func TestTrack_SameColumnRepeated(t *testing.T) {
	tr := collision.NewTracker()
	require.NoError(t, tr.Track("x", 1))
	require.NoError(t, tr.Track("x", 1))
	assert.Equal(t, 1, tr.Count())
}

func TestTrack_Collision(t *testing.T) {
	tr := collision.NewTracker()
	require.NoError(t, tr.Track("x", 1))
	err := tr.Track("y", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrHashCollision))
}
