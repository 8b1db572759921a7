package main

import (
	"io"
	"log"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"max.ks1230/finance-tracker/internal/clients/cache"
	"max.ks1230/finance-tracker/internal/config"
	"max.ks1230/finance-tracker/internal/model/budget"
	"max.ks1230/finance-tracker/internal/model/budgets"
	"max.ks1230/finance-tracker/internal/model/export"
	"max.ks1230/finance-tracker/internal/model/finance"
	"max.ks1230/finance-tracker/internal/model/storage"
	"max.ks1230/finance-tracker/internal/model/transactions"
	"max.ks1230/finance-tracker/internal/model/users"
	"max.ks1230/finance-tracker/internal/server"
)

func main() {
	conf, err := config.New()
	if err != nil {
		log.Fatal("failed to init config:", err)
	}

	closer, err := initTracer(conf.Jaeger())
	if err != nil {
		log.Fatal("failed to init tracer:", err)
	}
	defer closer.Close()

	store, err := storage.NewPostgresStorage(conf.Postgres())
	if err != nil {
		log.Fatal("failed to init storage:", err)
	}
	if err := store.Migrate(); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	memcached, err := cache.NewMemcache(conf.Memcached())
	if err != nil {
		log.Fatal("failed to init cache:", err)
	}

	evaluator := budget.NewEvaluator(store)

	usersService := users.NewService(store)
	transactionsService := transactions.NewService(store)
	budgetsService := budgets.NewService(store, evaluator)
	financeService := finance.NewService(store, evaluator)
	exportService := export.NewService(store)

	srv := server.New(
		usersService,
		transactionsService,
		budgetsService,
		financeService,
		exportService,
		store,
		memcached,
		conf.Auth(),
	)

	if err := srv.Run(conf.Server().Addr()); err != nil {
		log.Fatal("server stopped:", err)
	}
}

func initTracer(conf *config.JaegerConfig) (io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: conf.Service(),
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: conf.Host(),
		},
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
