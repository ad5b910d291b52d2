package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionJSON(t *testing.T) {
	p := Position{Longitude: -73.981452, Latitude: 40.763765}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[-73.981452,40.763765]}`, string(data))

	var decoded Position
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"Point","coordinates":[1]}`), &decoded))
}

func TestLocationJSONHidesInternalFlags(t *testing.T) {
	name := "Midtown pantry"
	distance := 120.5
	loc := &Location{
		ID:               "loc-1",
		Name:             &name,
		HiddenFromSearch: true,
		Distance:         &distance,
		Closed:           true,
		Organization:     &Organization{ID: "org-1", Name: "Food For All"},
	}

	data, err := json.Marshal(loc)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.NotContains(t, raw, "hidden_from_search")
	assert.Equal(t, true, raw["closed"])
	assert.Equal(t, 120.5, raw["distance"])
	assert.Contains(t, raw, "Organization")
	assert.NotContains(t, raw, "Services")
}

func TestLocationPoint(t *testing.T) {
	_, ok := (&Location{}).Point()
	assert.False(t, ok)

	p, ok := (&Location{Position: &Position{Longitude: 1, Latitude: 2}}).Point()
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Longitude)
	assert.Equal(t, 2.0, p.Latitude)
}
