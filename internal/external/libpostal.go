//go:build libpostal

package external

import (
	"context"

	"github.com/openvenues/gopostal/parser"

	"github.com/address-classifier/app/models"
)

// LibpostalClient parse in-process qua libpostal C library (cần build tag libpostal)
type LibpostalClient struct{}

// NewLibpostalClient tạo mới LibpostalClient
func NewLibpostalClient() (*LibpostalClient, error) {
	return &LibpostalClient{}, nil
}

// Parse gọi libpostal parser, giữ nguyên thứ tự component
func (lc *LibpostalClient) Parse(ctx context.Context, text string) ([]models.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed := parser.ParseAddress(text)
	components := make([]models.Component, 0, len(parsed))
	for _, c := range parsed {
		components = append(components, models.Component{Label: c.Label, Value: c.Value})
	}
	return components, nil
}
