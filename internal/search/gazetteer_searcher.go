package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
)

// ErrGazetteerDisabled city check không được bật
var ErrGazetteerDisabled = errors.New("city gazetteer disabled")

// CitySearcher nguồn candidate cho city check
type CitySearcher interface {
	SearchCities(ctx context.Context, query string, limit int64) ([]CityDoc, error)
}

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int64
	MinScore      float64
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.IndexName == "" {
		c.IndexName = "world_cities"
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 10
	}
	if c.MinScore <= 0 {
		c.MinScore = 0.9
	}
	return c
}

// CityGazetteer đối chiếu city đã resolve với danh sách thành phố thế giới.
// Kết quả chỉ mang tính tham khảo, không thay đổi resolved fields.
type CityGazetteer struct {
	searcher      CitySearcher
	logger        *zap.Logger
	timeout       time.Duration
	maxCandidates int64
	minScore      float64
}

// NewCityGazetteer tạo CityGazetteer với Meilisearch client và kiểm tra kết nối
func NewCityGazetteer(config SearchConfig, logger *zap.Logger) (*CityGazetteer, *ClientWrapper, error) {
	config = config.withDefaults()
	client := NewClientWrapper(config.Host, config.APIKey, config.IndexName)
	if err := client.Health(); err != nil {
		return nil, nil, err
	}
	return NewCityGazetteerWithSearcher(client, config, logger), client, nil
}

// NewCityGazetteerWithSearcher tạo CityGazetteer trên searcher bất kỳ
func NewCityGazetteerWithSearcher(searcher CitySearcher, config SearchConfig, logger *zap.Logger) *CityGazetteer {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CityGazetteer{
		searcher:      searcher,
		logger:        logger,
		timeout:       config.Timeout,
		maxCandidates: config.MaxCandidates,
		minScore:      config.MinScore,
	}
}

// Verify tìm thành phố gần nhất với city. nil receiver trả về ErrGazetteerDisabled.
func (g *CityGazetteer) Verify(ctx context.Context, city string) (*models.CityVerification, error) {
	if g == nil {
		return nil, ErrGazetteerDisabled
	}

	query := FoldName(city)
	if query == "" {
		return &models.CityVerification{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	docs, err := g.searcher.SearchCities(ctx, query, g.maxCandidates)
	if err != nil {
		return nil, err
	}

	best := &models.CityVerification{}
	for _, doc := range docs {
		score := nameScore(query, doc)
		if score > best.Score {
			best = &models.CityVerification{MatchName: doc.Name, Country: doc.Country, Score: score}
		}
	}
	best.Known = best.Score >= g.minScore

	g.logger.Debug("City verified",
		zap.String("city", city),
		zap.String("match", best.MatchName),
		zap.Float64("score", best.Score),
		zap.Bool("known", best.Known))
	return best, nil
}

// nameScore: 1 cho exact match hoặc khi tên thành phố xuất hiện trọn vẹn
// trong query (Nagoya trong Nagoya-shi), còn lại max(Jaro-Winkler, Levenshtein).
func nameScore(query string, doc CityDoc) float64 {
	name := doc.NormalizedName
	if name == "" {
		name = FoldName(doc.Name)
	}
	if name == "" {
		return 0
	}
	if name == query || containsWords(query, name) {
		return 1
	}

	jaroScore := smetrics.JaroWinkler(query, name, 0.7, 4)

	levDist := levenshtein.ComputeDistance(query, name)
	maxLen := math.Max(float64(len(query)), float64(len(name)))
	levScore := 1.0 - float64(levDist)/maxLen

	return math.Max(jaroScore, levScore)
}

func containsWords(haystack, needle string) bool {
	split := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
	words := strings.FieldsFunc(haystack, split)
	target := strings.FieldsFunc(needle, split)
	if len(target) == 0 {
		return false
	}

	for i := 0; i+len(target) <= len(words); i++ {
		match := true
		for j := range target {
			if words[i+j] != target[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
