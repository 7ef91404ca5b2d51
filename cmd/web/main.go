package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"elearning/internal/app"
	"elearning/internal/auth"
	"elearning/internal/content"
	"elearning/internal/db"
	"elearning/internal/score"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	dbConn, err := db.Open(ctx, cfg.DBConfig())
	if err != nil {
		cancel()
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, cfg.DBDriver); err != nil {
		cancel()
		log.Printf("migrate error: %v", err)
		os.Exit(1)
	}

	if cfg.AdminEmail != "" {
		authSvc := auth.NewService(dbConn, auth.ServiceConfig{JWTSecret: cfg.JWTSecret, BcryptCost: cfg.BcryptCost})
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			cancel()
			log.Printf("bootstrap admin error: %v", err)
			os.Exit(1)
		}
		log.Printf("admin account ensured for %s", cfg.AdminEmail)
	}

	if cfg.ContentSeedFile != "" {
		bundle, err := content.LoadBundleFile(cfg.ContentSeedFile)
		if err == nil {
			var res *content.ImportResult
			res, err = content.NewService(dbConn).ImportBundle(ctx, bundle)
			if err == nil {
				log.Printf("content seeded from %s lessons=%d sections=%d quizzes=%d", cfg.ContentSeedFile, res.Lessons, res.Sections, res.Quizzes)
			}
		}
		if err != nil {
			cancel()
			log.Printf("content seed error: %v", err)
			os.Exit(1)
		}
	}
	cancel()

	var scheduler *score.Scheduler
	if cfg.ScoreRecomputeCron != "" {
		scheduler, err = score.NewScheduler(score.NewService(dbConn), cfg.ScoreRecomputeCron, 5*time.Minute)
		if err != nil {
			log.Printf("scheduler error: %v", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	r := app.NewRouter(cfg, dbConn)

	log.Printf("elearning web listening on %s (db=%s env=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.AppEnv)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		if scheduler != nil {
			stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			scheduler.Stop(stopCtx)
			stop()
		}
		os.Exit(1)
	}
}
