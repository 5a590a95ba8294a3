package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"time"

	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/internal/database"
	"github.com/erpsystem/doccheck/internal/reports"
	"github.com/erpsystem/doccheck/internal/shop"
	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var errNoMongo = errors.New("MONGODB_URI is not set")

func runVerify(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) int {
	vc := verify.ConfigFrom(cfg)

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stdout)
	endpoint := fs.String("endpoint", cfg.Shop.GraphQLURL, "shop GraphQL URL")
	fs.StringVar(&vc.OrderID, "order", vc.OrderID, "order id to verify (required)")
	fs.StringVar(&vc.TargetStatus, "status", vc.TargetStatus, "status to transition the order to")
	fs.DurationVar(&vc.Timeout, "timeout", vc.Timeout, "how long to wait for generated documents")
	fs.DurationVar(&vc.PollInterval, "poll", vc.PollInterval, "interval between order re-fetches while waiting")
	fs.IntVar(&vc.MinDocuments, "min-docs", vc.MinDocuments, "document count that ends the wait early")
	fs.BoolVar(&vc.SkipProbe, "skip-probe", false, "do not HEAD the first PDF")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	record := fs.Bool("record", false, "archive the result in MongoDB (MONGODB_URI)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	shopCfg := cfg.Shop
	shopCfg.GraphQLURL = *endpoint
	client := shop.NewFromConfig(shopCfg)
	vc.Endpoint = client.Endpoint()

	runner, err := verify.NewRunner(vc, client)
	if err != nil {
		logger.Errorf("%v", err)
		return exitUsage
	}
	res := runner.Run(ctx)

	if *record {
		if err := archive(ctx, cfg, res); err != nil {
			logger.Errorf("failed to archive run %s: %v", res.RunID, err)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			logger.Errorf("failed to write result: %v", err)
		}
	} else if err := verify.Render(stdout, res); err != nil {
		logger.Errorf("failed to write report: %v", err)
	}
	return res.ExitCode()
}

func archive(ctx context.Context, cfg *config.Config, res *verify.Result) error {
	if cfg.MongoDB.URI == "" {
		return errNoMongo
	}
	// the run may have been interrupted; archiving still gets its own budget
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3, time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	repo, err := reports.NewMongoRepo(ctx, client.Database(cfg.MongoDB.Database).Collection(reports.CollectionName))
	if err != nil {
		return err
	}
	var cache reports.Cache
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		cache = reports.NewLatestCache(rdb, "", cfg.Redis.LatestTTL)
	}
	if err := reports.NewService(repo, cache).Record(ctx, res); err != nil {
		return err
	}
	logger.Infof("archived run %s", res.RunID)
	return nil
}
