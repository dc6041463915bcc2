package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/address-classifier/internal/normalizer"
)

// City một dòng của datahub world-cities dataset
type City struct {
	Name       string `json:"name"`
	Country    string `json:"country"`
	Subcountry string `json:"subcountry"`
	GeonameID  int64  `json:"geonameid"`
}

// CityDoc document trong Meilisearch
type CityDoc struct {
	ID             string `json:"id"`
	GeonameID      int64  `json:"geonameid"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Country        string `json:"country"`
	Subcountry     string `json:"subcountry"`
}

// LoadWorldCities đọc JSON array world-cities
func LoadWorldCities(r io.Reader) ([]City, error) {
	var raw []struct {
		Name       string          `json:"name"`
		Country    string          `json:"country"`
		Subcountry string          `json:"subcountry"`
		GeonameID  json.RawMessage `json:"geonameid"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode world cities: %w", err)
	}

	cities := make([]City, 0, len(raw))
	for i, c := range raw {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		id, err := parseGeonameID(c.GeonameID)
		if err != nil {
			return nil, fmt.Errorf("city %d (%s): %w", i, c.Name, err)
		}
		cities = append(cities, City{Name: c.Name, Country: c.Country, Subcountry: c.Subcountry, GeonameID: id})
	}
	return cities, nil
}

// geonameid là số trong bản JSON, là chuỗi trong bản CSV convert
func parseGeonameID(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// ToDocs chuyển sang documents cho index; id ổn định theo geonameid
func ToDocs(cities []City) []CityDoc {
	docs := make([]CityDoc, 0, len(cities))
	for i, c := range cities {
		id := strconv.FormatInt(c.GeonameID, 10)
		if c.GeonameID == 0 {
			id = "row-" + strconv.Itoa(i)
		}
		docs = append(docs, CityDoc{
			ID:             id,
			GeonameID:      c.GeonameID,
			Name:           c.Name,
			NormalizedName: FoldName(c.Name),
			Country:        c.Country,
			Subcountry:     c.Subcountry,
		})
	}
	return docs
}

// FoldName bỏ dấu, chuyển tự sang Latin và lower-case để so khớp tên
func FoldName(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(normalizer.StripDiacritics(s))))
}
