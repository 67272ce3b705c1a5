package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bankprofile/internal/config"
	"bankprofile/internal/database"
	"bankprofile/internal/domain/profile"
	jwtsvc "bankprofile/internal/pkg/jwt"
	"bankprofile/internal/pkg/logger"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("DB connection failed", zap.Error(err))
	}

	zl.Info("running migrations")
	if err := profile.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	repo := profile.NewRepository(db)
	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	ctx := context.Background()

	records := []profile.Record{
		{
			Email:       "ann.lee@example.com",
			FullName:    "Ann Lee",
			Phone:       "555-0100",
			DateOfBirth: date(1988, time.March, 14),
			Address:     "12 Harbor St",
			City:        "Portland",
			State:       "OR",
			ZipCode:     "97201",
		},
		{
			Email:    "raj.patel@example.com",
			FullName: "Raj Patel",
			Phone:    "555-0142",
		},
	}

	for _, rec := range records {
		rec.ID = uuid.NewString()
		if err := repo.Provision(ctx, rec); err != nil {
			zl.Fatal("seed profile failed", zap.String("email", rec.Email), zap.Error(err))
		}
		token, err := tokens.GenerateToken(rec.ID, rec.Email)
		if err != nil {
			zl.Fatal("token generation failed", zap.Error(err))
		}
		fmt.Printf("%s\t%s\tBearer %s\n", rec.ID, rec.Email, token)
	}

	// a user with no profile row yet; the editor shows defaults
	newcomer := uuid.NewString()
	token, err := tokens.GenerateToken(newcomer, "new.user@example.com")
	if err != nil {
		zl.Fatal("token generation failed", zap.Error(err))
	}
	fmt.Printf("%s\t%s\tBearer %s\n", newcomer, "new.user@example.com", token)

	zl.Info("seed completed", zap.Int("profiles", len(records)))
}
