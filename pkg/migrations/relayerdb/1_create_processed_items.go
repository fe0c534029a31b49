package relayerdb

import (
	"context"
	"log"

	"github.com/chainsafe/copytrade-relayer/pkg/db/dao"
	mghelper "github.com/chainsafe/copytrade-relayer/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating processed_items table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.ProcessedItemDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.ProcessedItemDao{}, "kind")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping processed_items table...")
		return mghelper.DropTables(ctx, db, &dao.ProcessedItemDao{})
	})
}
