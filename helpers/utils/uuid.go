package utils

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// GenerateJobID tạo ID cho batch job
func GenerateJobID() string {
	return "job_" + uuid.NewString()
}

// Fingerprint sinh cache key ổn định cho normalized text
func Fingerprint(normalized string) string {
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("sha256:%x", hash)
}
