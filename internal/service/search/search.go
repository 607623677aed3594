package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
)

// VendorDoc is the shape of one vendor document in the search index.
// FoodTitles carries the vendor's menu item titles so a dish keyword
// finds the vendors serving it.
type VendorDoc struct {
	ID         uint     `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	FoodTitles []string `json:"food_titles"`
	Location   struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
	DistanceKM float64 `json:"distance_km,omitempty"`
}

type Params struct {
	Keyword  string
	Lat      float64
	Lon      float64
	RadiusKM float64
	From     int
	Size     int
}

// Vendors searches the vendor index by keyword, optionally restricted
// to a radius around the caller and sorted by distance.
func Vendors(ctx context.Context, es *elasticsearch.Client, index string, p Params) (int64, []VendorDoc, error) {
	must := []map[string]interface{}{}
	if p.Keyword != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     p.Keyword,
				"fields":    []string{"name^2", "food_titles"},
				"fuzziness": "AUTO",
			},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	body := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  p.From,
		"size":  p.Size,
	}

	if p.RadiusKM > 0 {
		boolQuery["filter"] = []map[string]interface{}{
			{
				"geo_distance": map[string]interface{}{
					"distance": fmt.Sprintf("%.1fkm", p.RadiusKM),
					"location": map[string]float64{"lat": p.Lat, "lon": p.Lon},
				},
			},
		}
		body["sort"] = []map[string]interface{}{
			{
				"_geo_distance": map[string]interface{}{
					"location": map[string]float64{"lat": p.Lat, "lon": p.Lon},
					"order":    "asc",
					"unit":     "km",
				},
			},
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source VendorDoc `json:"_source"`
				Sort   []float64 `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	vendors := make([]VendorDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		vendors[i] = hit.Source
		if len(hit.Sort) > 0 {
			vendors[i].DistanceKM = hit.Sort[0]
		}
	}
	return r.Hits.Total.Value, vendors, nil
}
