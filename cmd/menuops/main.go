package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuops/internal/api"
	"menuops/internal/config"
	"menuops/internal/dashboard"
	"menuops/internal/database"
	"menuops/internal/events"
	"menuops/internal/export"
	"menuops/internal/linker"
	"menuops/internal/logging"
	"menuops/internal/monitoring"
	"menuops/internal/prep"
	"menuops/internal/pricing"
	"menuops/internal/render"
	"menuops/internal/store"
	"menuops/internal/syncer"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/rs/zerolog"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	port       = flag.Int("port", 0, "API server port (overrides config)")
)

// app holds the wired components shared by every command
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	db        *gorm.DB
	bus       *events.Bus
	stores    *store.Stores
	linker    *linker.Linker
	pricing   *pricing.Comparator
	prep      *prep.Aggregator
	monitor   *monitoring.Monitor
	collector *monitoring.Collector
	dashboard *dashboard.Reconciler
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: menuops [flags] [serve|report [-project id] [-date YYYY-MM-DD] [-xlsx file]]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty, os.Stderr)

	a, err := newApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.close()

	cmd, args := "serve", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		err = a.serve()
	case "report":
		err = a.report(args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func newApp(cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var kv store.KV
	if cfg.Database.Driver == "memory" {
		kv = store.NewMemoryKV()
	} else {
		db, err := database.Open(database.Options{
			Driver:  cfg.Database.Driver,
			DSN:     cfg.Database.DSN,
			LogMode: cfg.Database.LogMode,
		})
		if err != nil {
			return nil, err
		}
		a.db = db
		kv = store.NewGormKV(db)
	}

	a.bus = events.NewBus(log)
	a.stores = store.New(kv, a.bus)
	a.linker = linker.New(a.stores, linker.Options{
		LaborRatePerHour: cfg.Costing.LaborRatePerHour,
		FoodCostTarget:   cfg.Costing.FoodCostTarget,
	}, log)
	a.pricing = pricing.NewComparator(a.stores, cfg.Pricing.HistoryCap, log)

	var writer prep.TalkingPointWriter
	llmWriter, err := prep.NewOpenAIWriter(cfg.LLM.Model, cfg.LLM.APIKey)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("talking point suggestions disabled")
	case llmWriter != nil:
		writer = llmWriter
	}
	a.prep = prep.New(cfg.Prep, writer, log)

	a.monitor = monitoring.NewMonitor()
	a.collector = monitoring.NewCollector()
	a.dashboard = dashboard.New(a.stores, a.prep, cfg.Dashboard.Throttle, a.collector, log)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn().Err(err).Msg("database close failed")
		}
	}
}

func (a *app) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.dashboard.Start(ctx, a.bus)
	defer a.dashboard.Stop()

	if a.cfg.Sync.Endpoint != "" {
		client := syncer.NewClient(a.cfg.Sync.Endpoint, a.cfg.Sync.Token, a.cfg.Sync.Timeout)
		s := syncer.New(client, a.stores.KV, a.log)
		s.Start(ctx, a.bus)
		defer s.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := api.NewServer(api.Deps{
		Stores:    a.stores,
		Linker:    a.linker,
		Pricing:   a.pricing,
		Prep:      a.prep,
		Dashboard: a.dashboard,
		Monitor:   a.monitor,
		JWTSecret: a.cfg.Auth.JWTSecret,
		Log:       a.log,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: srv.Router(),
	}
	metricsServer := a.metricsServer()

	go func() {
		a.log.Info().Int("port", a.cfg.Server.MetricsPort).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("metrics server error")
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		a.log.Info().Msg("shutting down servers")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("API server shutdown error")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("metrics server shutdown error")
		}
		cancel()
	}()

	a.log.Info().Int("port", a.cfg.Server.Port).Msg("starting API server")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server: %w", err)
	}
	<-ctx.Done()
	return nil
}

func (a *app) metricsServer() *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(a.collector.Handler()))
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.MetricsPort),
		Handler: router,
	}
}

// report prints the dashboard, prep plan and briefing of one project
func (a *app) report(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	project := fs.String("project", "", "Project id (defaults to the current project)")
	date := fs.String("date", "", "Service date, YYYY-MM-DD")
	xlsx := fs.String("xlsx", "", "Also write the prep plan workbook to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	projectID := *project
	if projectID == "" {
		current, err := a.stores.Projects.Current(ctx)
		if err != nil {
			return err
		}
		projectID = current
	}

	var serviceDate time.Time
	if *date != "" {
		d, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", *date, err)
		}
		serviceDate = d
	}

	fmt.Println(render.Dashboard(a.dashboard.SnapshotOf(ctx, projectID)))

	in, warnings, err := prep.LoadInput(ctx, a.stores, projectID, serviceDate)
	if err != nil {
		return err
	}
	plan := a.prep.GeneratePrepPlan(in)
	if len(warnings) > 0 {
		plan.Warnings = append(warnings, plan.Warnings...)
	}
	fmt.Println(render.PrepPlan(plan))
	fmt.Println(render.Briefing(a.prep.GenerateSheet(ctx, in)))

	if *xlsx == "" {
		return nil
	}
	var comparisons []pricing.Comparison
	for _, line := range plan.Shopping {
		cmp, err := a.pricing.CompareVendorsForIngredient(ctx, pricing.IngredientKey(line.Name))
		if err == nil && len(cmp.Vendors) > 0 {
			comparisons = append(comparisons, cmp)
		}
	}
	f, err := os.Create(*xlsx)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteWorkbook(f, plan, comparisons); err != nil {
		return err
	}
	a.log.Info().Str("file", *xlsx).Msg("workbook written")
	return nil
}
