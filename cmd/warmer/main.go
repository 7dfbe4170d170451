// The warmer pre-fetches the next WARM_DAYS of calendar for every apartment
// and populates the cache, so hot apartments never pay the upstream round
// trip on a live page view. Run it from cron or a systemd timer.
package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"villarosa/internal/adapters/beds"
	"villarosa/internal/adapters/failover"
	"villarosa/internal/adapters/memcache"
	"villarosa/internal/adapters/observability"
	redisad "villarosa/internal/adapters/redis"
	"villarosa/internal/app"
	"villarosa/internal/domain"
	"villarosa/internal/shared"
	mysqlrepo "villarosa/internal/storage/mysql"
	"villarosa/internal/storage/static"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.BedsBase).
		Int("workers", cfg.Workers).
		Int("days", cfg.WarmDays).
		Msg("warmer starting")

	repo := buildRepo(cfg)

	client, err := beds.New(cfg.BedsBase, cfg.BedsKey, cfg.BedsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize calendar client")
	}
	cache := failover.New(
		redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
		memcache.New(),
	)

	apts, err := repo.ListApartments(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list apartments failed")
	}

	// cache keys use day granularity; truncate so the API's keys line up
	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, cfg.WarmDays)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, apt := range apts {
		apt := apt

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := warm(ctx, client, cache, apt, from, to, cfg.AvailabilityTTL); err != nil {
				log.Warn().Str("apartment", apt.ID).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("apartment", apt.ID).Msg("warm ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("warm-up completed")
}

func warm(ctx context.Context, client domain.CalendarClient, cache domain.Cache, apt domain.Apartment, from, to time.Time, ttl time.Duration) error {
	raw, err := client.FetchCalendar(ctx, apt.Ref, from, to)
	if err != nil {
		return err
	}
	w := app.Normalize(raw, apt.ID, from, to)
	key := app.CalendarKey(apt.ID, from, to)
	return cache.Set(ctx, key, w, ttl)
}

func buildRepo(cfg shared.Config) domain.ApartmentRepository {
	if cfg.ApartmentsJSON != "" {
		repo, err := static.Parse(cfg.ApartmentsJSON)
		if err != nil {
			log.Fatal().Err(err).Msg("APARTMENTS_JSON invalid")
		}
		return repo
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	return mysqlrepo.New(db)
}
