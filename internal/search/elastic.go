// Package search keeps a full text index of products in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopkart_back_end/internal/models"
)

// ErrDisabled is returned by Nop.Search.
var ErrDisabled = errors.New("search index disabled")

type document struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{client: client, index: index}
}

func (e *ElasticIndex) Index(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(document{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category.Hex(),
		Price:       p.Price,
	})
	if err != nil {
		return errors.Wrap(err, "encode product")
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	return e.do(ctx, req, "index product")
}

func (e *ElasticIndex) Delete(ctx context.Context, id primitive.ObjectID) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id.Hex()}
	err := e.do(ctx, req, "delete product")
	if errors.Is(err, errNotIndexed) {
		return nil
	}
	return err
}

// Search returns the ids of the best matching products, best first.
func (e *ElasticIndex) Search(ctx context.Context, query string, limit int) ([]primitive.ObjectID, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^3", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, errors.Wrap(err, "encode query")
	}

	res, err := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}.Do(ctx, e.client)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return []primitive.ObjectID{}, nil
	}
	if res.IsError() {
		return nil, errors.Errorf("search products: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	ids := make([]primitive.ObjectID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		if id, err := primitive.ObjectIDFromHex(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

var errNotIndexed = errors.New("document not indexed")

type requester interface {
	Do(ctx context.Context, transport esapi.Transport) (*esapi.Response, error)
}

func (e *ElasticIndex) do(ctx context.Context, req requester, op string) error {
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return errNotIndexed
	}
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.Errorf("%s: %s %s", op, res.Status(), strings.TrimSpace(string(msg)))
	}
	return nil
}

// Nop is used when Elasticsearch is not configured.
type Nop struct{}

func (Nop) Index(context.Context, models.Product) error { return nil }

func (Nop) Delete(context.Context, primitive.ObjectID) error { return nil }

func (Nop) Search(context.Context, string, int) ([]primitive.ObjectID, error) {
	return nil, ErrDisabled
}
