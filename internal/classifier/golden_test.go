package classifier

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/address-classifier/app/models"
)

type goldenCase struct {
	Name       string `yaml:"name"`
	Raw        string `yaml:"raw"`
	Country    string `yaml:"country"`
	Components []struct {
		Label string `yaml:"label"`
		Value string `yaml:"value"`
	} `yaml:"components"`
	Outcome  string `yaml:"outcome"`
	Expected struct {
		Complete   int    `yaml:"complete"`
		Street     string `yaml:"street"`
		House      string `yaml:"house"`
		PostalCode string `yaml:"postal_code"`
		City       string `yaml:"city"`
	} `yaml:"expected"`
}

func loadGolden(t *testing.T) []goldenCase {
	t.Helper()
	b, err := os.ReadFile("testdata/golden.yaml")
	require.NoError(t, err)

	var cases []goldenCase
	require.NoError(t, yaml.Unmarshal(b, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func TestGolden(t *testing.T) {
	for _, gc := range loadGolden(t) {
		t.Run(gc.Name, func(t *testing.T) {
			components := make([]models.Component, 0, len(gc.Components))
			for _, c := range gc.Components {
				components = append(components, models.Component{Label: c.Label, Value: c.Value})
			}

			result := NewPipeline(&fakeParser{components: components}).Classify(context.Background(), models.AddressRecord{
				RawAddress:  gc.Raw,
				CountryCode: gc.Country,
			})

			assert.Equal(t, models.Outcome(gc.Outcome), result.Outcome)
			assert.Equal(t, models.ResultTuple{
				Complete:    gc.Expected.Complete,
				Street:      gc.Expected.Street,
				HouseNumber: gc.Expected.House,
				PostalCode:  gc.Expected.PostalCode,
				City:        gc.Expected.City,
			}, result.Resolved.Tuple())
		})
	}
}
