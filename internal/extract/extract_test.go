package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
	"name": "Show",
	"empty": "",
	"nothing": null,
	"id": 12345678901234567,
	"price": "12.50",
	"onsale": "true",
	"flag": false,
	"width": 640,
	"ratio": 1.5,
	"dates": {"start": {"dateTime": "2020-01-01T20:00:00Z", "localDate": "2020-01-01"}},
	"classifications": [
		{"segment": {"name": "Music"}},
		{"segment": {"name": "Arts"}}
	],
	"performers": {"performer": {"name": "Solo"}}
}`

func decodeSample(t *testing.T) interface{} {
	doc, err := Decode([]byte(sample))
	require.NoError(t, err)
	return doc
}

func TestLookup(t *testing.T) {
	doc := decodeSample(t)
	tests := []struct {
		path string
		ok   bool
	}{
		{"name", true},
		{"empty", false},
		{"nothing", false},
		{"missing", false},
		{"dates.start.dateTime", true},
		{"dates.start.missing.deeper", false},
		{"classifications.1.segment.name", true},
		{"classifications.2.segment.name", false},
		{"classifications.x.segment", false},
		{"classifications.-1", false},
		{"name.sub", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, ok := Lookup(doc, tt.path)
			assert.Equal(t, tt.ok, ok)
		})
	}
	_, ok := Lookup(nil, "name")
	assert.False(t, ok)
}

func TestHas(t *testing.T) {
	doc := decodeSample(t)
	assert.True(t, Has(doc, "nothing"))
	assert.True(t, Has(doc, "empty"))
	assert.False(t, Has(doc, "missing"))
}

func TestTypedHelpers(t *testing.T) {
	doc := decodeSample(t)

	assert.Equal(t, "Show", String(doc, "name"))
	assert.Equal(t, "12345678901234567", String(doc, "id"))
	assert.Equal(t, "false", String(doc, "flag"))
	assert.Equal(t, "", String(doc, "dates"))
	assert.Equal(t, "Arts", String(doc, "classifications.1.segment.name"))

	b, ok := Bool(doc, "onsale")
	assert.True(t, ok)
	assert.True(t, b)
	b, ok = Bool(doc, "flag")
	assert.True(t, ok)
	assert.False(t, b)
	_, ok = Bool(doc, "name")
	assert.False(t, ok)

	f, ok := Float(doc, "price")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	_, ok = Float(doc, "name")
	assert.False(t, ok)

	i, ok := Int(doc, "width")
	assert.True(t, ok)
	assert.Equal(t, 640, i)
	_, ok = Int(doc, "ratio")
	assert.False(t, ok)

	tm, ok := Time(doc, "dates.start.dateTime")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 1, 20, 0, 0, 0, time.UTC), tm.UTC())
	tm, ok = Time(doc, "dates.start.localDate")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), tm)
	_, ok = Time(doc, "name")
	assert.False(t, ok)
}

func TestItems(t *testing.T) {
	doc := decodeSample(t)
	assert.Len(t, Items(doc, "classifications"), 2)
	assert.Len(t, Items(doc, "performers.performer"), 1)
	assert.Nil(t, Items(doc, "name"))
	assert.Nil(t, Items(doc, "missing"))
}

func TestNonJSONInputNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Lookup("plain", "a.b")
		Lookup(42, "0")
		Items([]interface{}{nil}, "0.x")
	})
}
