package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CandidateCache bản ghi cache kết quả parser trong MongoDB
type CandidateCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint    string             `bson:"fingerprint" json:"fingerprint"`
	NormalizedText string             `bson:"normalized_text" json:"normalized_text"`
	Candidates     CandidateMap       `bson:"candidates" json:"candidates"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewCandidateCache tạo mới một CandidateCache
func NewCandidateCache(fingerprint, normalized string, candidates CandidateMap) *CandidateCache {
	now := time.Now()
	return &CandidateCache{
		Fingerprint:    fingerprint,
		NormalizedText: normalized,
		Candidates:     candidates,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo); ttl <= 0 nghĩa là không hết hạn
func (cc *CandidateCache) IsExpired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(cc.CreatedAt) > ttl
}
