package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
	"github.com/huayu-app/huayu-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "huayu", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.HskLevel{},
		&types.Scenario{},
		&types.Conversation{},
		&types.ConversationTurn{},
		&types.PreLearningContent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table  string
		name   string
		column string
		ref    string
		onDel  string
	}{
		{"user_token", "fk_user_token_user_id", "user_id", `"user"("id")`, "CASCADE"},
		{"scenario", "fk_scenario_created_by_user_id", "created_by_user_id", `"user"("id")`, "SET NULL"},
		{"scenario", "fk_scenario_suggested_hsk_level_id", "suggested_hsk_level_id", `"hsk_level"("id")`, "SET NULL"},
		{"conversation", "fk_conversation_user_id", "user_id", `"user"("id")`, "CASCADE"},
		{"conversation", "fk_conversation_scenario_id", "scenario_id", `"scenario"("id")`, "CASCADE"},
		{"conversation", "fk_conversation_hsk_level_id", "hsk_level_id", `"hsk_level"("id")`, "CASCADE"},
		{"conversation_turn", "fk_conversation_turn_conversation_id", "conversation_id", `"conversation"("id")`, "CASCADE"},
		{"scenario_pre_learning_cache", "fk_pre_learning_scenario_id", "scenario_id", `"scenario"("id")`, "CASCADE"},
		{"scenario_pre_learning_cache", "fk_pre_learning_hsk_level_id", "hsk_level_id", `"hsk_level"("id")`, "CASCADE"},
	}
	for _, fk := range constraints {
		stmt := fmt.Sprintf(`
			DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE "%s"
					ADD CONSTRAINT "%s"
					FOREIGN KEY ("%s")
					REFERENCES %s
					ON DELETE %s;
				END IF;
			END $$;
		`, fk.name, fk.table, fk.name, fk.column, fk.ref, fk.onDel)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
