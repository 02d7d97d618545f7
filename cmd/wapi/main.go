package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"wapi/config"
	"wapi/log"
	"wapi/providers"
	"wapi/store"
	"wapi/wapi"
)

var (
	configPath = flag.StringP("config", "c", "config.toml", "config file to load")
	debug      = flag.Bool("debug", false, "log at debug level")
	oneshot    = flag.Bool("oneshot", false, "run a single update cycle and exit")
	help       = flag.BoolP("help", "h", false, "print this help")
)

var (
	version   string
	buildDate string
)

var conf config.Config

func init() {
	flag.Parse()
	if *help {
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}
}

// bootstrapLogger is alive only until the config is loaded; configuredLogger
// replaces it with one built from the log section.
func bootstrapLogger() context.Context {
	build := zap.NewProduction
	if *debug {
		build = zap.NewDevelopment
	}

	logger, err := build()
	if err != nil {
		fmt.Printf("cannot create startup logger: %v\n", err)
		os.Exit(1)
	}
	return log.WithLogger(context.Background(), logger)
}

func configuredLogger(ctx context.Context) context.Context {
	option := zap.NewProductionConfig()
	if *debug {
		option = zap.NewDevelopmentConfig()
	}

	if conf.Log.Level != nil {
		option.Level.SetLevel(*conf.Log.Level)
	}
	if conf.Log.Encoding != nil {
		option.Encoding = *conf.Log.Encoding
	}
	if conf.Log.InfoPath != nil {
		option.OutputPaths = *conf.Log.InfoPath
	}
	if conf.Log.ErrorPath != nil {
		option.ErrorOutputPaths = *conf.Log.ErrorPath
	}
	option.InitialFields = map[string]interface{}{"service": conf.Service.Name}

	logger, err := option.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build configured logger", zap.Error(err))
	}
	return log.WithLogger(context.Background(), logger)
}

func loadConfig(ctx context.Context) {
	f, err := os.Open(*configPath)
	if err != nil {
		log.S(ctx).Fatalw("failed loading config", zap.Error(err))
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(*configPath, ".toml"):
		err = toml.NewDecoder(f).Decode(&conf)
	case strings.HasSuffix(*configPath, ".yaml") || strings.HasSuffix(*configPath, ".yml"):
		err = yaml.NewDecoder(f).Decode(&conf)
	case strings.HasSuffix(*configPath, ".json"):
		err = json.NewDecoder(f).Decode(&conf)
	default:
		err = fmt.Errorf("unrecognized config format: %s", *configPath)
	}

	if err != nil {
		log.S(ctx).Fatalw("failed loading config", zap.Error(err))
	}

	if err := conf.Validate(); err != nil {
		log.S(ctx).Fatalw("invalid config", zap.Error(err))
	}
}

func openCache(ctx context.Context, c config.Cache) (store.Interface, error) {
	switch c.Backend {
	case "", "file":
		path := c.Path
		if path == "" {
			path = "wapi-cache.json"
		}
		return store.OpenFile(ctx, path)
	case "memory":
		return store.NewMemory(c.MemoryLimit), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

func runCycle(ctx context.Context, resolver *wapi.Resolver, engine *wapi.Engine) bool {
	addrs, err := resolver.Resolve(ctx)
	if err != nil {
		log.S(ctx).Errorw("resolve failed, skip update", zap.Error(err))
		return false
	}

	report := engine.Run(ctx, addrs)
	for _, res := range report.Failed() {
		log.S(ctx).Errorw("record failed",
			"domain", res.Record.Domain,
			"ns_type", res.Record.Type,
			"attempts", res.Attempts,
			zap.Error(res.Err))
	}
	return report.OK()
}

func main() {
	ctx := bootstrapLogger()

	if buildDate != "" {
		log.S(ctx).Infow("wapi starting", "variant", "release", "version", version, "build_date", buildDate)
	} else {
		log.S(ctx).Infow("wapi starting", "variant", "debug")
	}

	loadConfig(ctx)

	if version != "" {
		store.DocVersion = version
	}
	if conf.Service.Name != "" {
		providers.ManagedComment += "-" + conf.Service.Name
	}

	ctx = configuredLogger(ctx)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := wapi.NewResolver(ctx, conf.Address)
	if err != nil {
		log.S(ctx).Fatalw("cannot init resolver", zap.Error(err))
	}

	registry := providers.NewRegistry(conf.Account)
	if err := registry.Validate(conf.Record); err != nil {
		log.S(ctx).Fatalw("record configuration is not serviceable", zap.Error(err))
	}

	cache, err := openCache(ctx, conf.Cache)
	if err != nil {
		log.S(ctx).Fatalw("cannot open record cache", zap.Error(err))
	}

	engine := wapi.New(registry, cache, wapi.Records(conf.Record), wapi.Options{
		Workers:      conf.Engine.Workers,
		MaxAttempts:  conf.Engine.MaxAttempts,
		CallTimeout:  conf.Engine.CallTimeout.Std(),
		RetryInitial: conf.Engine.RetryInitial.Std(),
		RetryMax:     conf.Engine.RetryMax.Std(),
	})

	refresh := conf.Service.RefreshRate.Std()
	once := *oneshot || refresh <= 0

	var ticker *time.Ticker
	if !once {
		ticker = time.NewTicker(refresh)
		defer ticker.Stop()
	}

	exitCode := 0
	for {
		ok := runCycle(ctx, resolver, engine)

		if once {
			if !ok {
				exitCode = 1
			}
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.S(ctx).Infow("shutting down")
			goto Shutdown
		}
	}

Shutdown:
	if err := cache.Close(); err != nil {
		log.S(ctx).Warnw("failed closing record cache", zap.Error(err))
	}
	os.Exit(exitCode)
}
