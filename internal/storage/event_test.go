package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2022-08-13T20:57:08.018Z", want: time.Date(2022, 8, 13, 20, 57, 8, 18000000, time.UTC)},
		{raw: "2022-08-13T22:57:08+02:00", want: time.Date(2022, 8, 13, 20, 57, 8, 0, time.UTC)},
		{raw: "2022-08-13T20:57:08", want: time.Date(2022, 8, 13, 20, 57, 8, 0, time.UTC)},
		{raw: "2022-08-13T20:57", want: time.Date(2022, 8, 13, 20, 57, 0, 0, time.UTC)},
		{raw: " 2022-08-13 20:57 ", want: time.Date(2022, 8, 13, 20, 57, 0, 0, time.UTC)},
		{raw: "2022-08-13", want: time.Date(2022, 8, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDateTime(tt.raw)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	for _, raw := range []string{"", "next tuesday", "13/08/2022"} {
		_, err := ParseDateTime(raw)
		require.ErrorIs(t, err, ErrIncorrectDateTime)
	}
}

func TestSortByStart(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "undated"},
		{ID: "b", DateTime: base},
		{ID: "late", DateTime: base.Add(time.Hour)},
		{ID: "a", DateTime: base},
	}
	SortByStart(events)

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{"a", "b", "late", "undated"}, ids)
}
