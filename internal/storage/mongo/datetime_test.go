package mongostorage

import (
	"testing"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func rawValue(t *testing.T, v interface{}) bson.RawValue {
	t.Helper()
	typ, data, err := bson.MarshalValue(v)
	require.NoError(t, err)
	return bson.RawValue{Type: typ, Value: data}
}

func TestParseDateTime(t *testing.T) {
	id := primitive.NewObjectID()
	want := time.Date(2022, 8, 13, 20, 57, 8, 18000000, time.UTC)

	tests := []struct {
		name  string
		value bson.RawValue
		want  time.Time
	}{
		{name: "native date", value: rawValue(t, want), want: want},
		{name: "iso string", value: rawValue(t, "2022-08-13T20:57:08.018Z"), want: want},
		{name: "datetime-local string", value: rawValue(t, "2022-08-13T20:57"), want: time.Date(2022, 8, 13, 20, 57, 0, 0, time.UTC)},
		{name: "garbage string", value: rawValue(t, "next tuesday")},
		{name: "wrong type", value: rawValue(t, int32(5))},
		{name: "missing", value: bson.RawValue{}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := parseDateTime(id, tc.value)
			require.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestEventDocOmitsMissingStart(t *testing.T) {
	doc := newEventDoc(storage.Event{Name: "undated"})
	require.Nil(t, doc.DateTime)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("dateTime")
	require.Error(t, err)
}

