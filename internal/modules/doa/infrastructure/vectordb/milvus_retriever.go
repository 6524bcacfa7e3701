package vectordb

import (
	"context"
	"encoding/json"
	"fmt"

	"DoaLink/internal/modules/doa/domain/retrieval"

	"github.com/cloudwego/eino-ext/components/retriever/milvus2"
	"github.com/cloudwego/eino-ext/components/retriever/milvus2/search_mode"
	"github.com/cloudwego/eino/components/embedding"
	einoRetriever "github.com/cloudwego/eino/components/retriever"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// MilvusRetriever 单集合检索器（文本 -> 向量化 -> 相似度搜索）。
// overview 和 detail 各建一个实例，指向不同集合。
type MilvusRetriever struct {
	cli        *milvusclient.Client
	r          einoRetriever.Retriever
	collection string
	topK       int
}

var _ retrieval.Retriever = (*MilvusRetriever)(nil)

type MilvusConfig struct {
	Address  string
	Username string
	Password string
	DBName   string
}

func NewMilvusRetriever(
	ctx context.Context,
	conf MilvusConfig,
	embedder embedding.Embedder,
	collection string,
	topK int,
) (*MilvusRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	cli, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  conf.Address,
		Username: conf.Username,
		Password: conf.Password,
		DBName:   conf.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus v2 client: %w", err)
	}

	rConfig := &milvus2.RetrieverConfig{
		Client:       cli,
		Collection:   collection,
		TopK:         topK,
		Embedding:    embedder,
		OutputFields: []string{"id", "content", "metadata"},
		SearchMode:   search_mode.NewApproximate(milvus2.COSINE),
	}
	r, err := milvus2.NewRetriever(ctx, rConfig)
	if err != nil {
		cli.Close(ctx)
		return nil, fmt.Errorf("failed to create eino retriever: %w", err)
	}

	return &MilvusRetriever{
		cli:        cli,
		r:          r,
		collection: collection,
		topK:       topK,
	}, nil
}

func (m *MilvusRetriever) Close(ctx context.Context) error {
	if m.cli != nil {
		return m.cli.Close(ctx)
	}
	return nil
}

// Search 实现 retrieval.Retriever，metadata JSON 字段解成类型化 Meta
func (m *MilvusRetriever) Search(ctx context.Context, query string) ([]retrieval.Document, error) {
	docs, err := m.r.Retrieve(ctx, query, einoRetriever.WithTopK(m.topK))
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.Document, 0, len(docs))
	for _, doc := range docs {
		d := retrieval.Document{
			ID:      doc.ID,
			Content: doc.Content,
			Score:   float32(doc.Score()),
		}

		if val, ok := doc.MetaData["metadata"]; ok && val != nil {
			switch t := val.(type) {
			case string:
				d.Meta = parseMetaJSON(t)
			case map[string]any:
				d.Meta = retrieval.Meta(t)
			default:
				if bs, err := json.Marshal(t); err == nil {
					d.Meta = parseMetaJSON(string(bs))
				}
			}
		}

		out = append(out, d)
	}
	return out, nil
}

func parseMetaJSON(raw string) retrieval.Meta {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return retrieval.Meta(m)
}
