package initial

import (
	"context"
	"fmt"
	"strings"

	"DoaLink/internal/config"
	"DoaLink/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var MilvusClient mclient.Client

func init() {
	conf := config.GetConfig()
	addr := strings.TrimSpace(conf.MilvusConfig.Address)
	if addr == "" {
		return
	}

	ctx := context.Background()
	cli, err := newMilvusClientAndEnsureSchema(ctx, conf)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("milvus init failed: %v", err))
		return
	}
	MilvusClient = cli
}

func newMilvusClientAndEnsureSchema(ctx context.Context, conf *config.Config) (mclient.Client, error) {
	addr := strings.TrimSpace(conf.MilvusConfig.Address)
	dbName := strings.TrimSpace(conf.MilvusConfig.DBName)
	overviewCol := strings.TrimSpace(conf.MilvusConfig.OverviewCollection)
	detailCol := strings.TrimSpace(conf.MilvusConfig.DetailCollection)

	if dbName == "" {
		dbName = "doalink"
	}
	if overviewCol == "" {
		overviewCol = "doa_overview_docs"
	}
	if detailCol == "" {
		detailCol = "doa_detail_docs"
	}

	dim := conf.MilvusConfig.VectorDim
	if dim <= 0 {
		dim = 3072
	}

	defaultCli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   "default",
	})
	if err != nil {
		return nil, err
	}

	dbs, err := defaultCli.ListDatabases(ctx)
	if err != nil {
		_ = defaultCli.Close()
		return nil, err
	}
	exists := false
	for _, db := range dbs {
		if db.Name == dbName {
			exists = true
			break
		}
	}
	if !exists {
		if err := defaultCli.CreateDatabase(ctx, dbName); err != nil {
			_ = defaultCli.Close()
			return nil, err
		}
	}

	cli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   dbName,
	})
	if err != nil {
		_ = defaultCli.Close()
		return nil, err
	}

	// 概览/明细双集合，schema 相同
	for _, col := range []struct {
		name string
		desc string
	}{
		{overviewCol, "DOA category overview documents"},
		{detailCol, "DOA approval authority detail documents"},
	} {
		if err := ensureCollection(ctx, cli, col.name, col.desc, dim); err != nil {
			_ = defaultCli.Close()
			_ = cli.Close()
			return nil, err
		}
	}

	_ = defaultCli.Close()

	return cli, nil
}

func ensureCollection(ctx context.Context, cli mclient.Client, collection, description string, dim int) error {
	cols, err := cli.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if c.Name == collection {
			_ = cli.LoadCollection(ctx, collection, false)
			return nil
		}
	}

	schema := &entity.Schema{
		CollectionName: collection,
		Description:    description,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:       "vector",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{entity.TypeParamDim: fmt.Sprintf("%d", dim)},
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8192",
				},
			},
			{
				Name:     "metadata",
				DataType: entity.FieldTypeJSON,
			},
		},
	}

	if err := cli.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return err
	}

	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return err
	}
	if err := cli.CreateIndex(ctx, collection, "vector", idx, false); err != nil {
		return err
	}

	_ = cli.LoadCollection(ctx, collection, false)

	return nil
}
