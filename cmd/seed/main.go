// Seed tool: load CSV/XLSX link lists into seed_links and optionally
// reconcile them into the videos catalog.
//
//	seed -dir ./seeds
//	seed -file "Operators Podcast Video Youtube Links.csv" -podcast 9operators
//	seed -reconcile            # seed_links -> videos, no file needed
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"operators-vault-go/internal/catalog"
	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/store/postgres"
	"operators-vault-go/internal/types"
)

func main() {
	_ = godotenv.Load()

	var (
		file      = flag.String("file", "", "single CSV or XLSX seed file")
		dir       = flag.String("dir", "", "directory of CSV/XLSX seed files")
		podcast   = flag.String("podcast", "", "podcast for -file (default: inferred from filename)")
		minDur    = flag.Int("min-duration", catalog.MinDurationSeconds, "skip videos shorter than this many seconds")
		reconcile = flag.Bool("reconcile", false, "upsert seed_links into videos after loading")
	)
	flag.Parse()

	log := logger.Component("seed")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("postgres connect failed")
	}
	repo := postgres.NewVideoRepo(db)

	var links []types.SeedLink
	switch {
	case *file != "":
		links, err = catalog.LoadSeedFile(*file, *podcast, *minDur)
	case *dir != "":
		links, err = catalog.LoadSeedDir(*dir, *minDur)
	case !*reconcile:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Fatal("seed load failed")
	}

	if len(links) > 0 {
		n, err := repo.UpsertSeedLinks(ctx, links)
		if err != nil {
			log.WithError(err).Fatal("seed link upsert failed")
		}
		log.WithField("upserted", n).Info("seed links upserted")
	}

	if *reconcile {
		n, err := repo.SeedVideosFromLinks(ctx)
		if err != nil {
			log.WithError(err).Fatal("reconcile failed")
		}
		log.WithField("seeded", n).Info("videos reconciled from seed links")
	}
}
