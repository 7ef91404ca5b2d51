// Command seed imports a YAML content bundle into the configured database.
//
//	seed -file content/sample.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"elearning/internal/app"
	"elearning/internal/content"
	"elearning/internal/db"
)

func main() {
	file := flag.String("file", "", "path to the YAML content bundle")
	migrate := flag.Bool("migrate", true, "create the schema before importing")
	flag.Parse()

	if *file == "" {
		log.Printf("usage: seed -file <bundle.yaml>")
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbConn, err := db.Open(ctx, cfg.DBConfig())
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if *migrate {
		if err := db.Migrate(ctx, dbConn, cfg.DBDriver); err != nil {
			log.Printf("migrate error: %v", err)
			os.Exit(1)
		}
	}

	bundle, err := content.LoadBundleFile(*file)
	if err != nil {
		log.Printf("load bundle error: %v", err)
		os.Exit(1)
	}
	res, err := content.NewService(dbConn).ImportBundle(ctx, bundle)
	if err != nil {
		log.Printf("import error: %v", err)
		os.Exit(1)
	}
	log.Printf("imported %s lessons=%d sections=%d quizzes=%d", *file, res.Lessons, res.Sections, res.Quizzes)
}
