package classifier

import (
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/normalizer"
)

// streetOptional các nước đánh địa chỉ theo khu/lô, không theo đường
var streetOptional = map[string]bool{
	"JP": true,
	"KR": true,
	"CN": true,
}

// IsComplete: house number, postal code và city luôn bắt buộc; street bắt
// buộc trừ JP, KR và CN.
func IsComplete(resolved models.ResolvedAddress, countryCode string) bool {
	if resolved.HouseNumber == "" || resolved.PostalCode == "" || resolved.City == "" {
		return false
	}
	return resolved.Street != "" || streetOptional[normalizer.NormalizeCountry(countryCode)]
}
