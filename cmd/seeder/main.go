package main

import (
	"context"
	"fmt"
	"os"

	"komodo-ledger/config"
	"komodo-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Seeds a demo catalog for local development: one organization with a
// 10% commission rate, one event, two stands and a handful of products.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer conn.Close(ctx) //nolint:errcheck

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM organizations").Scan(&count); err != nil {
		log.Fatal().Err(err).Msg("counting organizations")
	}
	if count > 0 {
		log.Info().Int("organizations", count).Msg("catalog already seeded, skipping")
		return
	}

	orgID := uuid.New()
	eventID := uuid.New()
	foodStandID := uuid.New()
	drinkStandID := uuid.New()
	foodOwnerID := uuid.New()
	drinkOwnerID := uuid.New()

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	steps := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO organizations (id, name, commission_rate) VALUES ($1, $2, $3)`,
			[]interface{}{orgID, "Komodo Festivals", "10.00"}},
		{`INSERT INTO events (id, organization_id, name) VALUES ($1, $2, $3)`,
			[]interface{}{eventID, orgID, "Summer Street Fair"}},
		{`INSERT INTO stands (id, event_id, name, owner_id) VALUES ($1, $2, $3, $4)`,
			[]interface{}{foodStandID, eventID, "Grill Corner", foodOwnerID}},
		{`INSERT INTO stands (id, event_id, name, owner_id) VALUES ($1, $2, $3, $4)`,
			[]interface{}{drinkStandID, eventID, "Lemonade Hut", drinkOwnerID}},
	}
	for _, s := range steps {
		if _, err := tx.Exec(ctx, s.query, s.args...); err != nil {
			log.Fatal().Err(err).Msg("seeding catalog")
		}
	}

	products := [][]interface{}{
		{uuid.New(), foodStandID, "Burger", "8.50"},
		{uuid.New(), foodStandID, "Hot Dog", "5.00"},
		{uuid.New(), foodStandID, "Fries", "3.25"},
		{uuid.New(), drinkStandID, "Lemonade", "4.00"},
		{uuid.New(), drinkStandID, "Iced Tea", "3.50"},
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "stand_id", "name", "price"},
		pgx.CopyFromRows(products),
	); err != nil {
		log.Fatal().Err(err).Msg("seeding products")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("commit")
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("food_stand_id", foodStandID.String()).
		Str("drink_stand_id", drinkStandID.String()).
		Msg("demo catalog seeded")
}
