// Command seed loads tours and ratings from a JSON file into the database, or
// prints the top-N ranking the file would produce with -preview.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/logging"
	"github.com/Clark-Hu/tour-ratings/internal/ratings"
	"github.com/Clark-Hu/tour-ratings/internal/recommend"
	"github.com/Clark-Hu/tour-ratings/internal/repository"
	"github.com/Clark-Hu/tour-ratings/internal/store"
	"github.com/Clark-Hu/tour-ratings/internal/validation"
)

type tourEntry struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
}

type ratingEntry struct {
	Tour       string  `json:"tour" validate:"required"`
	CustomerID int     `json:"customerId" validate:"gt=0"`
	Score      int     `json:"score" validate:"min=1,max=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=255"`
}

type seedFile struct {
	Tours   []tourEntry   `json:"tours" validate:"dive"`
	Ratings []ratingEntry `json:"ratings" validate:"dive"`
}

func main() {
	var (
		data    = flag.String("data", "seed.json", "path to seed data file")
		dbURL   = flag.String("db", "", "database URL (defaults to DB_URL)")
		preview = flag.Int("preview", 0, "print the top N tours without touching the database")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: "console", Output: os.Stderr})

	payload, err := loadSeedFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("load seed data")
	}
	logger.Info().Int("tours", len(payload.Tours)).Int("ratings", len(payload.Ratings)).Msg("seed data loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *preview > 0 {
		if err := printPreview(ctx, os.Stdout, payload, *preview); err != nil {
			logger.Fatal().Err(err).Msg("preview")
		}
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal().Err(err).Msg("load .env")
	}
	url := *dbURL
	if url == "" {
		url = os.Getenv("DB_URL")
	}
	if url == "" {
		logger.Fatal().Msg("database URL required: pass -db or set DB_URL")
	}

	if err := seed(ctx, url, payload, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed database")
	}
}

func loadSeedFile(path string) (seedFile, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parseSeed(file)
}

func parseSeed(raw []byte) (seedFile, error) {
	var payload seedFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		return seedFile{}, fmt.Errorf("parse seed data: %w", err)
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		return seedFile{}, fmt.Errorf("invalid seed data: %w", verr)
	}

	known := make(map[string]struct{}, len(payload.Tours))
	for _, t := range payload.Tours {
		known[t.Title] = struct{}{}
	}
	type pair struct {
		tour     string
		customer int
	}
	rated := make(map[pair]struct{}, len(payload.Ratings))
	for _, r := range payload.Ratings {
		if _, ok := known[r.Tour]; !ok {
			return seedFile{}, fmt.Errorf("rating by customer %d references unknown tour %q", r.CustomerID, r.Tour)
		}
		key := pair{r.Tour, r.CustomerID}
		if _, dup := rated[key]; dup {
			return seedFile{}, fmt.Errorf("customer %d rates tour %q more than once", r.CustomerID, r.Tour)
		}
		rated[key] = struct{}{}
	}
	return payload, nil
}

// snapshot loads the seed into memory. Tours get ids in file order starting
// at 1; a repeated title keeps its first id.
func snapshot(payload seedFile) *recommend.Snapshot {
	snap := recommend.NewSnapshot()
	ids := make(map[string]int, len(payload.Tours))
	for _, t := range payload.Tours {
		if _, dup := ids[t.Title]; dup {
			continue
		}
		ids[t.Title] = len(ids) + 1
		snap.AddTour(ids[t.Title], t.Title)
	}
	for _, r := range payload.Ratings {
		snap.AddRating(domain.Rating{TourID: ids[r.Tour], CustomerID: r.CustomerID, Score: r.Score, Comment: r.Comment})
	}
	return snap
}

func printPreview(ctx context.Context, w io.Writer, payload seedFile, limit int) error {
	recs, err := recommend.NewEngine(snapshot(payload)).RecommendTopN(ctx, limit)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		if _, err := fmt.Fprintf(w, "%2d. %-40s %.2f (%d reviews)\n", i+1, rec.Title, rec.AverageScore, rec.ReviewCount); err != nil {
			return err
		}
	}
	return nil
}

func seed(ctx context.Context, dbURL string, payload seedFile, logger zerolog.Logger) error {
	st, err := store.New(ctx, dbURL, store.Options{ConnTimeout: 10 * time.Second, StatementCacheCapacity: -1, Logger: logger})
	if err != nil {
		return err
	}
	defer st.Close()

	repo := repository.New(st)
	svc := ratings.NewService(repo.Tours, repo.Ratings)

	ids := make(map[string]int, len(payload.Tours))
	for _, t := range payload.Tours {
		if _, done := ids[t.Title]; done {
			continue
		}
		existing, err := repo.Tours.FindByTitle(ctx, t.Title)
		if err != nil {
			return fmt.Errorf("look up tour %q: %w", t.Title, err)
		}
		if len(existing) > 0 {
			ids[t.Title] = existing[0].ID
			logger.Debug().Str("title", t.Title).Int("id", existing[0].ID).Msg("tour exists")
			continue
		}
		tour, err := repo.Tours.Create(ctx, repository.TourCreateParams{Title: t.Title, Description: t.Description})
		if err != nil {
			return fmt.Errorf("create tour %q: %w", t.Title, err)
		}
		ids[t.Title] = tour.ID
		logger.Debug().Str("title", t.Title).Int("id", tour.ID).Msg("tour created")
	}

	var created, skipped int
	for _, r := range payload.Ratings {
		_, err := svc.CreateNew(ctx, ids[r.Tour], r.CustomerID, r.Score, r.Comment)
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrConflict):
			skipped++
		default:
			return fmt.Errorf("rate %q for customer %d: %w", r.Tour, r.CustomerID, err)
		}
	}

	logger.Info().Int("tours", len(ids)).Int("ratings_created", created).Int("ratings_skipped", skipped).Msg("seed complete")
	return nil
}
