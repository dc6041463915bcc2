// Package search wraps the Meilisearch world-cities index used to check
// resolved city names.
package search

import (
	"context"
	"fmt"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper wraps the Meilisearch client for the city index
type ClientWrapper struct {
	cli   ms.ServiceManager
	index string
}

// NewClientWrapper creates new Meilisearch client wrapper
func NewClientWrapper(url, key, index string) *ClientWrapper {
	return &ClientWrapper{
		cli:   ms.New(url, ms.WithAPIKey(key)),
		index: index,
	}
}

// Health kiểm tra Meilisearch còn sống
func (c *ClientWrapper) Health() error {
	if _, err := c.cli.Health(); err != nil {
		return fmt.Errorf("meilisearch unhealthy: %w", err)
	}
	return nil
}

// SearchCities full-text search trên index thành phố
func (c *ClientWrapper) SearchCities(_ context.Context, query string, limit int64) ([]CityDoc, error) {
	result, err := c.cli.Index(c.index).Search(query, &ms.SearchRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", err)
	}
	return parseHits(result.Hits), nil
}

// ConfigureIndex cấu hình searchable/filterable attributes, trả về task uid
func (c *ClientWrapper) ConfigureIndex() (int64, error) {
	task, err := c.cli.Index(c.index).UpdateSettings(&ms.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "subcountry"},
		FilterableAttributes: []string{"country", "subcountry"},
		SortableAttributes:   []string{"name"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
	})
	if err != nil {
		return 0, fmt.Errorf("lỗi cấu hình index: %w", err)
	}
	return task.TaskUID, nil
}

// AddCities nạp documents theo batch, trả về task uid của từng batch
func (c *ClientWrapper) AddCities(docs []CityDoc, batchSize int) ([]int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	index := c.cli.Index(c.index)
	var tasks []int64
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		task, err := index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return tasks, fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}
		tasks = append(tasks, task.TaskUID)
	}
	return tasks, nil
}

// WaitForTask polling task tới khi succeeded hoặc failed
func (c *ClientWrapper) WaitForTask(ctx context.Context, taskUID int64, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := c.cli.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("lỗi check task status: %w", err)
		}
		switch task.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("task %d %s: %v", taskUID, task.Status, task.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func parseHits(hits []interface{}) []CityDoc {
	docs := make([]CityDoc, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		doc := CityDoc{}
		if id, ok := hitMap["id"].(string); ok {
			doc.ID = id
		}
		if name, ok := hitMap["name"].(string); ok {
			doc.Name = name
		}
		if normalizedName, ok := hitMap["normalized_name"].(string); ok {
			doc.NormalizedName = normalizedName
		}
		if country, ok := hitMap["country"].(string); ok {
			doc.Country = country
		}
		if subcountry, ok := hitMap["subcountry"].(string); ok {
			doc.Subcountry = subcountry
		}
		if geonameID, ok := hitMap["geonameid"].(float64); ok {
			doc.GeonameID = int64(geonameID)
		}
		if doc.Name != "" {
			docs = append(docs, doc)
		}
	}
	return docs
}
