package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-classifier/app/models"
)

func candidates(pairs ...string) models.CandidateMap {
	components := make([]models.Component, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		components = append(components, models.Component{Label: pairs[i], Value: pairs[i+1]})
	}
	return models.NewCandidateMap(components)
}

func TestResolve_BaselineTakesFirstCandidates(t *testing.T) {
	r := New()
	got := r.Resolve(context.Background(), "Hauptstrasse 12, 10115 Berlin", "DE", candidates(
		"road", "hauptstrasse",
		"house_number", "12",
		"postcode", "10115",
		"city", "berlin",
		"city", "potsdam",
	))

	assert.Equal(t, models.ResolvedAddress{
		Street:      "hauptstrasse",
		HouseNumber: "12",
		PostalCode:  "10115",
		City:        "berlin",
	}, got)
}

func TestResolve_PostalFromText(t *testing.T) {
	r := New()
	text := "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 460-8625"
	got := r.Resolve(context.Background(), text, "JP", candidates(
		"house_number", "6-29",
		"road", "Nishiki",
		"city", "Nagoya-shi",
	))

	assert.Equal(t, "Nishiki", got.Street)
	assert.Equal(t, "6-29", got.HouseNumber)
	assert.Equal(t, "460-8625", got.PostalCode)
	assert.Equal(t, "Nagoya-shi", got.City)
	assert.False(t, got.Complete)
}

func TestResolve_PostalFromTextAfterHouseNumber(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		country  string
		road     string
		house    string
		city     string
		expected string
	}{
		{name: "zurich", text: "Bahnhofstrasse 12 8001 Zurich", country: "CH", road: "bahnhofstrasse", house: "12", city: "zurich", expected: "8001"},
		{name: "wien", text: "Stephansplatz 5 1010 Wien", country: "AT", road: "stephansplatz", house: "5", city: "wien", expected: "1010"},
		{name: "wien three digit house", text: "Mariahilfer Strasse 120 1060 Wien", country: "AT", road: "mariahilfer strasse", house: "120", city: "wien", expected: "1060"},
	}

	r := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(context.Background(), tc.text, tc.country, candidates(
				"road", tc.road,
				"house_number", tc.house,
				"city", tc.city,
			))
			assert.Equal(t, tc.expected, got.PostalCode)
			assert.Equal(t, tc.house, got.HouseNumber)
		})
	}
}

func TestResolve_NeverOverwritesParsedPostalCode(t *testing.T) {
	r := New()
	got := r.Resolve(context.Background(), "Main Road 4, 99999 Springfield 12345", "US", candidates(
		"road", "main road",
		"house_number", "4",
		"house_number", "12345",
		"postcode", "54321",
		"city", "springfield",
	))

	assert.Equal(t, "54321", got.PostalCode)
	assert.Equal(t, "4", got.HouseNumber)
}

func TestResolve_CityAdjacentPostal(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		city     string
		expected string
	}{
		{name: "token before city", text: "Hauptstrasse 12, 10115 Berlin", city: "Berlin", expected: "10115"},
		{name: "token after city", text: "Berlin 10115, Hauptstrasse", city: "berlin", expected: "10115"},
		{name: "multi word city", text: "Rua do Ouvidor, Rio de Janeiro 20040-020", city: "rio de janeiro", expected: "20040-020"},
		{name: "multi word city partial span", text: "Rio Grande 96200", city: "Rio de Janeiro", expected: ""},
		{name: "city first in text", text: "Berlin Mitte Hauptstrasse", city: "Berlin", expected: ""},
		{name: "city not in text", text: "Hauptstrasse 12, 10115", city: "Munich", expected: ""},
		{name: "neighbour without digit", text: "Hauptstrasse Berlin Mitte", city: "Berlin", expected: ""},
	}

	r := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(context.Background(), tc.text, "DE", candidates("city", tc.city))
			assert.Equal(t, tc.expected, got.PostalCode)
			assert.Equal(t, tc.city, got.City)
		})
	}
}

func TestResolve_HouseNumberSplit(t *testing.T) {
	testCases := []struct {
		name          string
		houseNumbers  []string
		expectedHouse string
		expectedCode  string
	}{
		{name: "postal code inside first candidate", houseNumbers: []string{"12 75008", "bis"}, expectedHouse: "12", expectedCode: "75008"},
		{name: "postal code in later candidate", houseNumbers: []string{"12", "D-80331"}, expectedHouse: "12", expectedCode: "D-80331"},
		{name: "remainder of later candidate replaces baseline", houseNumbers: []string{"Block A", "12 75008"}, expectedHouse: "12", expectedCode: "75008"},
		{name: "later candidate without remainder", houseNumbers: []string{"Block A", "75008"}, expectedHouse: "Block A", expectedCode: "75008"},
		{name: "remainder without digit", houseNumbers: []string{"10115 Berlin", "42"}, expectedHouse: "42", expectedCode: "10115"},
		{name: "no postal code anywhere", houseNumbers: []string{"bis", "7"}, expectedHouse: "7", expectedCode: ""},
		{name: "no postal code and digit baseline", houseNumbers: []string{"7", "bis"}, expectedHouse: "7", expectedCode: ""},
	}

	r := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := []string{"city", "Paris"}
			for _, h := range tc.houseNumbers {
				pairs = append(pairs, "house_number", h)
			}
			got := r.Resolve(context.Background(), "Rue de Rivoli bis Paris", "FR", candidates(pairs...))
			assert.Equal(t, tc.expectedHouse, got.HouseNumber)
			assert.Equal(t, tc.expectedCode, got.PostalCode)
		})
	}
}

func TestResolve_HouseNumberSplitNeedsTwoCandidates(t *testing.T) {
	r := New()
	got := r.Resolve(context.Background(), "Rue de Rivoli bis Paris", "FR", candidates(
		"city", "Paris",
		"house_number", "12 75008",
	))

	assert.Equal(t, "12 75008", got.HouseNumber)
	assert.Empty(t, got.PostalCode)
}

func TestResolve_SuburbAsCity(t *testing.T) {
	cands := candidates(
		"road", "campbell parade",
		"house_number", "1",
		"postcode", "2026",
		"suburb", "Bondi",
	)

	got := New().Resolve(context.Background(), "1 Campbell Parade, Bondi NSW 2026", "au", cands)
	assert.Equal(t, "Bondi", got.City)

	got = New().Resolve(context.Background(), "1 Campbell Parade, Bondi NSW 2026", "NZ", cands)
	assert.Empty(t, got.City)
}

func TestResolve_StreetMarkerCity(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		road     string
		expected string
	}{
		{name: "marker in road candidate", text: "Tverskaya 7, 125009", road: "Moskva ul. Tverskaya", expected: "Moskva"},
		{name: "marker in text", text: "Moskva, ul. Tverskaya 7, 125009", road: "tverskaya", expected: "Moskva"},
		{name: "cyrillic marker", text: "Москва, ул. Тверская 7", road: "тверская", expected: "Москва"},
		{name: "marker first", text: "ul. Tverskaya 7, 125009", road: "ul. Tverskaya", expected: ""},
		{name: "no marker", text: "Tverskaya 7, 125009", road: "tverskaya", expected: ""},
	}

	r := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(context.Background(), tc.text, "RU", candidates(
				"road", tc.road,
				"house_number", "7",
				"postcode", "125009",
			))
			assert.Equal(t, tc.expected, got.City)
		})
	}
}

func TestResolve_EmptyCandidates(t *testing.T) {
	got := New().Resolve(context.Background(), "some text without structure", "DE", models.CandidateMap{})
	assert.Equal(t, models.ResolvedAddress{}, got)
}

func TestResolve_Deterministic(t *testing.T) {
	r := New()
	text := "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 460-8625"
	cands := candidates("house_number", "6-29", "road", "Nishiki", "city", "Nagoya-shi")
	want := r.Resolve(context.Background(), text, "JP", cands)

	var wg sync.WaitGroup
	results := make([]models.ResolvedAddress, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), text, "JP", cands)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, []string{"6-29"}, cands.Values(models.LabelHouseNumber), "candidates must not be mutated")
}

func TestResolve_TracerSeesEveryStep(t *testing.T) {
	var mu sync.Mutex
	var events []TraceEvent
	tracer := TracerFunc(func(_ context.Context, ev TraceEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	r := New(WithTracer(tracer))
	r.Resolve(context.Background(), "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 460-8625", "JP",
		candidates("house_number", "6-29", "road", "Nishiki", "city", "Nagoya-shi"))

	require.Len(t, events, 8)

	steps := make([]string, 0, len(events))
	for _, ev := range events {
		steps = append(steps, ev.Step)
	}
	assert.Equal(t, []string{
		StepBaseline, StepBaseline, StepBaseline,
		StepPostalFromText,
		StepCityAdjacentPostal,
		StepHouseNumberSplit,
		StepSuburbAsCity,
		StepStreetMarkerCity,
	}, steps)

	assert.Equal(t, TraceEvent{Step: StepPostalFromText, Field: FieldPostalCode, Value: "460-8625", Applied: true}, events[3])
	assert.False(t, events[4].Applied)
}

func TestWithTracer_NilKeepsNop(t *testing.T) {
	r := New(WithTracer(nil))
	assert.IsType(t, NopTracer{}, r.tracer)
}
