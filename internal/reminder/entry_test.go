package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbot/internal/shared"
)

func TestNewTriggerTime(t *testing.T) {
	tests := []struct {
		name                 string
		hour, minute, second int
		wantErr              bool
	}{
		{"midnight", 0, 0, 0, false},
		{"last second of day", 23, 59, 59, false},
		{"typical morning", 7, 30, 0, false},
		{"hour too big", 24, 0, 0, true},
		{"hour negative", -1, 0, 0, true},
		{"minute too big", 7, 60, 0, true},
		{"second too big", 7, 0, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := NewTriggerTime(tt.hour, tt.minute, tt.second)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, at.Hour)
			assert.Equal(t, tt.minute, at.Minute)
			assert.Equal(t, tt.second, at.Second)
		})
	}
}

func TestParseTriggerTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TriggerTime
		wantErr bool
	}{
		{"full format", "07:30:15", TriggerTime{7, 30, 15}, false},
		{"short format", "07:30", TriggerTime{7, 30, 0}, false},
		{"unpadded", "7:5:3", TriggerTime{7, 5, 3}, false},
		{"with spaces", " 08:00:00 ", TriggerTime{8, 0, 0}, false},
		{"empty", "", TriggerTime{}, true},
		{"garbage", "morning", TriggerTime{}, true},
		{"too many parts", "07:30:00:00", TriggerTime{}, true},
		{"out of range", "25:00:00", TriggerTime{}, true},
		{"non-numeric part", "07:3o:00", TriggerTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTriggerTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsCorruptSchedule(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTriggerTime_String(t *testing.T) {
	assert.Equal(t, "07:05:03", TriggerTime{7, 5, 3}.String())
	assert.Equal(t, "00:00:00", TriggerTime{}.String())
	assert.Equal(t, "23:59:59", TriggerTime{23, 59, 59}.String())
}

func TestTriggerTime_RoundTrip(t *testing.T) {
	orig := TriggerTime{9, 41, 27}
	parsed, err := ParseTriggerTime(orig.String())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestNextFire(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		at   TriggerTime
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2025, 3, 10, 6, 0, 0, 0, riga),
			at:   TriggerTime{7, 30, 0},
			want: time.Date(2025, 3, 10, 7, 30, 0, 0, riga),
		},
		{
			name: "already passed, tomorrow",
			now:  time.Date(2025, 3, 10, 8, 0, 0, 0, riga),
			at:   TriggerTime{7, 30, 0},
			want: time.Date(2025, 3, 11, 7, 30, 0, 0, riga),
		},
		{
			name: "exactly now goes to tomorrow",
			now:  time.Date(2025, 3, 10, 7, 30, 0, 0, riga),
			at:   TriggerTime{7, 30, 0},
			want: time.Date(2025, 3, 11, 7, 30, 0, 0, riga),
		},
		{
			name: "one second before fires today",
			now:  time.Date(2025, 3, 10, 7, 29, 59, 0, riga),
			at:   TriggerTime{7, 30, 0},
			want: time.Date(2025, 3, 10, 7, 30, 0, 0, riga),
		},
		{
			name: "month rollover",
			now:  time.Date(2025, 3, 31, 10, 0, 0, 0, riga),
			at:   TriggerTime{7, 30, 0},
			want: time.Date(2025, 4, 1, 7, 30, 0, 0, riga),
		},
		{
			name: "second precision preserved",
			now:  time.Date(2025, 3, 10, 6, 0, 0, 0, riga),
			at:   TriggerTime{7, 30, 45},
			want: time.Date(2025, 3, 10, 7, 30, 45, 0, riga),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFire(tt.now, tt.at, riga)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextFire_ConvertsNowIntoLocation(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)

	// 05:00 UTC is 07:00 in Riga (winter, UTC+2): 07:30 is still ahead today.
	now := time.Date(2025, 1, 15, 5, 0, 0, 0, time.UTC)
	got := NextFire(now, TriggerTime{7, 30, 0}, riga)
	want := time.Date(2025, 1, 15, 7, 30, 0, 0, riga)
	assert.True(t, got.Equal(want), "got %v, want %v", got, want)
}
