// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package sync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	basissync "github.com/basislabs/basis/sync"
)

type numMsg struct{ N int }
type tagMsg struct {
	Key float64
	Tag string
}

func TestAll2FiresOnceBothSlotsFilled(t *testing.T) {
	var got []int
	s := basissync.NewAll2[numMsg, numMsg](basissync.Default, basissync.Default, func(_ int64, a, b *numMsg) {
		got = append(got, a.N+b.N)
	})

	s.OnA(&numMsg{N: 1})
	require.Empty(t, got)
	s.OnB(&numMsg{N: 2})
	require.Equal(t, []int{3}, got)
}

func TestAll2ClearsNonCachedNonOptionalSlotsAfterFire(t *testing.T) {
	var fires int
	s := basissync.NewAll2[numMsg, numMsg](basissync.Default, basissync.Default, func(int64, *numMsg, *numMsg) {
		fires++
	})

	s.OnA(&numMsg{N: 1})
	s.OnB(&numMsg{N: 2})
	require.Equal(t, 1, fires)

	// Only B arrives again: A was cleared on the previous consume, so the
	// synchronizer must not fire until A is resupplied.
	s.OnB(&numMsg{N: 3})
	require.Equal(t, 1, fires)
}

func TestAll2CachedSlotSurvivesConsume(t *testing.T) {
	var sums []int
	cached := basissync.SlotOption{IsCached: true}
	s := basissync.NewAll2[numMsg, numMsg](cached, basissync.Default, func(_ int64, a, b *numMsg) {
		sums = append(sums, a.N+b.N)
	})

	s.OnA(&numMsg{N: 10})
	s.OnB(&numMsg{N: 1})
	s.OnB(&numMsg{N: 2})
	require.Equal(t, []int{11, 12}, sums)
}

func TestFieldEqual2MatchesOnSharedKey(t *testing.T) {
	var matched []string
	s := basissync.NewFieldEqual2[tagMsg, tagMsg](
		basissync.Default, func(m *tagMsg) any { return m.Key },
		basissync.Default, func(m *tagMsg) any { return m.Key },
		8,
		func(_ int64, a, b *tagMsg) { matched = append(matched, a.Tag+"+"+b.Tag) },
	)

	s.OnA(&tagMsg{Key: 1, Tag: "a1"})
	s.OnA(&tagMsg{Key: 2, Tag: "a2"})
	require.Empty(t, matched)

	s.OnB(&tagMsg{Key: 2, Tag: "b2"})
	require.Equal(t, []string{"a2+b2"}, matched)
}

func TestFieldEqual2PicksOldestCommonAlignment(t *testing.T) {
	var matched []string
	s := basissync.NewFieldEqual2[tagMsg, tagMsg](
		basissync.Default, func(m *tagMsg) any { return m.Key },
		basissync.Default, func(m *tagMsg) any { return m.Key },
		8,
		func(_ int64, a, b *tagMsg) { matched = append(matched, a.Tag+"+"+b.Tag) },
	)

	s.OnA(&tagMsg{Key: 1, Tag: "a1"})
	s.OnA(&tagMsg{Key: 1, Tag: "a1b"})
	s.OnB(&tagMsg{Key: 1, Tag: "b1"})

	require.Equal(t, []string{"a1+b1"}, matched)
}

func TestFieldApproximatelyEqual2MatchesWithinEpsilon(t *testing.T) {
	var matched []string
	s := basissync.NewFieldApproximatelyEqual2[tagMsg, tagMsg](
		0.5,
		basissync.Default, func(m *tagMsg) float64 { return m.Key },
		basissync.Default, func(m *tagMsg) float64 { return m.Key },
		8,
		func(_ int64, a, b *tagMsg) { matched = append(matched, a.Tag+"+"+b.Tag) },
	)

	s.OnA(&tagMsg{Key: 10.0, Tag: "a"})
	s.OnB(&tagMsg{Key: 10.3, Tag: "b"})
	require.Equal(t, []string{"a+b"}, matched)
}

func TestFieldApproximatelyEqual2RejectsOutsideEpsilon(t *testing.T) {
	var matched []string
	s := basissync.NewFieldApproximatelyEqual2[tagMsg, tagMsg](
		0.1,
		basissync.Default, func(m *tagMsg) float64 { return m.Key },
		basissync.Default, func(m *tagMsg) float64 { return m.Key },
		8,
		func(_ int64, a, b *tagMsg) { matched = append(matched, a.Tag+"+"+b.Tag) },
	)

	s.OnA(&tagMsg{Key: 10.0, Tag: "a"})
	s.OnB(&tagMsg{Key: 10.3, Tag: "b"})
	require.Empty(t, matched)
}
