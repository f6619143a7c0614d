package idseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCommit(t *testing.T) {
	s := New(4)
	r, err := s.Reserve(3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 5, 6}, r.Positions())
	assert.Equal(t, uint64(4), s.Next())

	r.Commit()
	r.Release()
	assert.Equal(t, uint64(7), s.Next())
}

func TestReleaseReusesPositions(t *testing.T) {
	s := New(0)
	r, err := s.Reserve(2)
	require.NoError(t, err)

	_, err = s.Reserve(1)
	assert.ErrorIs(t, err, ErrPending)

	r.Release()
	r2, err := s.Reserve(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r2.First)
	r2.Commit()
	assert.Equal(t, uint64(1), s.Next())
}

func TestReserveZero(t *testing.T) {
	_, err := New(0).Reserve(0)
	assert.Error(t, err)
}
