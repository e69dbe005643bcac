package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"

	"github.com/elastic/go-elasticsearch/v9"
)

// 検索に使う項目だけを入れたドキュメント
type productDocument struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ActiveIngredient string `json:"active_ingredient"`
	Manufacturer     string `json:"manufacturer"`
	Category         string `json:"category"`
}

// 商品の全文検索インデックス（Elasticsearch）
type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(addr, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

func NewProductIndex(es *elasticsearch.Client, index string) *ProductIndex {
	return &ProductIndex{es: es, index: index}
}

func (p *ProductIndex) IndexProduct(ctx context.Context, prod model.Product) error {
	body, err := json.Marshal(productDocument{
		ID:               prod.ID,
		Name:             prod.Name,
		Description:      prod.Description,
		ActiveIngredient: prod.ActiveIngredient,
		Manufacturer:     prod.Manufacturer,
		Category:         prod.Category,
	})
	if err != nil {
		return err
	}

	res, err := p.es.Index(
		p.index,
		bytes.NewReader(body),
		p.es.Index.WithContext(ctx),
		p.es.Index.WithDocumentID(strconv.FormatInt(prod.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", prod.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", prod.ID, res.Status())
	}
	return nil
}

// 無いドキュメントの削除はエラーにしない
func (p *ProductIndex) DeleteProduct(ctx context.Context, productID int64) error {
	res, err := p.es.Delete(
		p.index,
		strconv.FormatInt(productID, 10),
		p.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", productID, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product %d: %s", productID, res.Status())
	}
	return nil
}

// SearchProductIDs は関連度順の商品IDを返す。
func (p *ProductIndex) SearchProductIDs(ctx context.Context, query string, size int) ([]int64, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "active_ingredient^2", "description", "manufacturer", "category"},
				"fuzziness": "AUTO",
			},
		},
		"size":    size,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(p.index),
		p.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search products: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source productDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}
