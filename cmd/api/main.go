package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"villarosa/internal/adapters/beds"
	"villarosa/internal/adapters/failover"
	server "villarosa/internal/adapters/http_server"
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
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	repo := buildRepo(cfg)

	client, err := beds.New(cfg.BedsBase, cfg.BedsKey, cfg.BedsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize calendar client")
	}

	cache := failover.New(
		redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
		memcache.New(),
	)

	engine := app.NewEngine(repo, cache, client, app.TTLs{
		Availability: cfg.AvailabilityTTL,
		Apartment:    cfg.ApartmentTTL,
		Policy:       cfg.PolicyTTL,
	}, cfg.UpstreamTimeout)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{E: engine})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// buildRepo picks the apartment registry backend: the JSON config blob when
// provided, MySQL otherwise.
func buildRepo(cfg shared.Config) domain.ApartmentRepository {
	if cfg.ApartmentsJSON != "" {
		repo, err := static.Parse(cfg.ApartmentsJSON)
		if err != nil {
			log.Fatal().Err(err).Msg("APARTMENTS_JSON invalid")
		}
		log.Info().Msg("apartment registry from config blob")
		return repo
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db)
}
