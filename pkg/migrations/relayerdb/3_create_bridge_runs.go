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
		log.Println("creating bridge_runs table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.BridgeRunDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.BridgeRunDao{}, "status", "order_id", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_runs table...")
		return mghelper.DropTables(ctx, db, &dao.BridgeRunDao{})
	})
}
