//go:build !libpostal

package external

import (
	"context"
	"errors"

	"github.com/address-classifier/app/models"
)

// ErrLibpostalNotBuilt binary được build không có tag libpostal
var ErrLibpostalNotBuilt = errors.New("libpostal driver requires building with -tags libpostal")

// LibpostalClient placeholder khi không có libpostal
type LibpostalClient struct{}

// NewLibpostalClient luôn trả về ErrLibpostalNotBuilt
func NewLibpostalClient() (*LibpostalClient, error) {
	return nil, ErrLibpostalNotBuilt
}

func (lc *LibpostalClient) Parse(context.Context, string) ([]models.Component, error) {
	return nil, ErrLibpostalNotBuilt
}
