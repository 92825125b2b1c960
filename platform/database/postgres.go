package database

import (
	"context"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/config"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
)

func PostgreSQLConnection(cfg config.DB) *pg.DB {
	return pg.Connect(&pg.Options{
		User:     cfg.User,
		Addr:     cfg.Addr,
		Password: cfg.Password,
		Database: cfg.Name,
	})
}

// CreateSchema creates the journal table if it does not exist yet.
func CreateSchema(ctx context.Context, db *pg.DB) error {
	if err := db.Ping(ctx); err != nil {
		return err
	}
	return db.ModelContext(ctx, (*models.TurnEvent)(nil)).CreateTable(&orm.CreateTableOptions{
		IfNotExists: true,
	})
}
