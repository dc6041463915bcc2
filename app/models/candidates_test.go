package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCandidateMap_GroupsByLabelKeepingOrder(t *testing.T) {
	cm := NewCandidateMap([]Component{
		{Label: "house_number", Value: "12"},
		{Label: "road", Value: "hauptstrasse"},
		{Label: "country", Value: "germany"},
		{Label: "house_number", Value: "10115 berlin"},
		{Label: "state_district", Value: "mitte"},
		{Label: "city", Value: "berlin"},
	})

	assert.Equal(t, []string{"12", "10115 berlin"}, cm.Values(LabelHouseNumber))
	assert.Equal(t, "hauptstrasse", cm.First(LabelRoad))
	assert.Equal(t, "berlin", cm.First(LabelCity))
	assert.False(t, cm.Has(LabelPostcode))
	assert.Equal(t, "", cm.First(LabelPostcode))
	assert.Len(t, cm, 3)
}

func TestNewCandidateMap_Empty(t *testing.T) {
	cm := NewCandidateMap(nil)
	assert.True(t, cm.IsEmpty())

	cm = NewCandidateMap([]Component{{Label: "country", Value: "japan"}, {Label: "city", Value: ""}})
	assert.True(t, cm.IsEmpty())
}

func TestParseLabel(t *testing.T) {
	for _, raw := range []string{"road", "house_number", "postcode", "city", "suburb"} {
		label, ok := ParseLabel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, raw, string(label))
	}

	_, ok := ParseLabel("state")
	assert.False(t, ok)
	_, ok = ParseLabel("Road")
	assert.False(t, ok)
}

func TestCandidateMap_CloneIsIndependent(t *testing.T) {
	cm := CandidateMap{LabelCity: {"Bondi"}}
	clone := cm.Clone()
	clone[LabelCity][0] = "Sydney"

	assert.Equal(t, "Bondi", cm.First(LabelCity))
}

func TestResolvedAddress_Tuple(t *testing.T) {
	r := ResolvedAddress{Street: "Nishiki", HouseNumber: "6-29", PostalCode: "460-8625", City: "Nagoya-shi", Complete: true}
	assert.Equal(t, ResultTuple{Complete: 1, Street: "Nishiki", HouseNumber: "6-29", PostalCode: "460-8625", City: "Nagoya-shi"}, r.Tuple())

	assert.Equal(t, ResultTuple{}, ResolvedAddress{}.Tuple())
}
