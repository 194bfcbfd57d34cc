package window

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Chronological(t *testing.T) {
	got := slices.Collect(Plan(3, 1))
	want := []Window{
		{StartOffset: 3, StopOffset: 2},
		{StartOffset: 2, StopOffset: 1},
		{StartOffset: 1, StopOffset: 0},
	}
	assert.Equal(t, want, got)
}

func TestPlan_SingleWindowFallback(t *testing.T) {
	tests := []struct {
		name     string
		interval int
	}{
		{"interval larger than look-back", 10},
		{"interval equal to look-back", 5},
		{"interval absent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Plan(5, tt.interval))
			assert.Equal(t, []Window{{StartOffset: 5, StopOffset: 0}}, got)
		})
	}
}

func TestPlan_ClampsFinalStop(t *testing.T) {
	got := slices.Collect(Plan(5, 2))
	want := []Window{
		{StartOffset: 5, StopOffset: 3},
		{StartOffset: 3, StopOffset: 1},
		{StartOffset: 1, StopOffset: 0},
	}
	assert.Equal(t, want, got)
}

func TestPlan_NoDays(t *testing.T) {
	assert.Empty(t, slices.Collect(Plan(0, 1)))
}

func TestPlan_StopsEarly(t *testing.T) {
	var seen int
	for range Plan(10, 1) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestWindowRange_Abuts(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	windows := slices.Collect(Plan(3, 1))
	require.Len(t, windows, 3)

	for i := 1; i < len(windows); i++ {
		prev := windows[i-1].Range(now)
		cur := windows[i].Range(now)
		assert.Equal(t, prev.Stop, cur.Start)
	}
	assert.Equal(t, now.Add(-3*Day), windows[0].Range(now).Start)
	assert.Equal(t, now, windows[2].Range(now).Stop)
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "-3d to -2d", Window{StartOffset: 3, StopOffset: 2}.String())
	assert.Equal(t, "-7d to -0d", Single(7).String())
}
