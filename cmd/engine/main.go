package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"vacancyboard-engine/internal/action"
	"vacancyboard-engine/internal/config"
	"vacancyboard-engine/internal/events"
	"vacancyboard-engine/internal/feed"
	"vacancyboard-engine/internal/httpapi"
	"vacancyboard-engine/internal/refresh"
	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/scheduler"
	"vacancyboard-engine/internal/secrets"
	"vacancyboard-engine/internal/sink"
	"vacancyboard-engine/internal/state"
	"vacancyboard-engine/internal/submit"
)

func main() {
	// Engine data dir: use env if provided (the desktop shell passes one),
	// else local folder.
	dataDir := os.Getenv("VACANCYBOARD_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Two engines against one sqlite file corrupt the outbox ordering;
	// refuse to start a second instance.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running against %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		c, err := config.Load(userCfgPath)
		if err != nil {
			return c, err
		}
		config.OverlayEnv(&c)
		norm, res := config.NormalizeAndValidate(c)
		for _, wmsg := range res.Warnings {
			log.Printf("level=warn msg=\"config\" warning=%q", wmsg)
		}
		if !res.OK() {
			for _, emsg := range res.Errors {
				log.Printf("level=error msg=\"config\" error=%q", emsg)
			}
		}
		return norm, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "vacancyboard.db")
	db, err := state.OpenDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := state.Migrate(db); err != nil {
		log.Fatal(err)
	}

	store, err := state.New(db)
	if err != nil {
		log.Fatalf("state load failed: %v", err)
	}
	outbox := state.NewOutbox(db)
	hub := events.NewHub()

	token, err := secrets.GetSinkToken()
	if err != nil {
		log.Printf("level=warn msg=\"no sink token, writes will queue until one is set\" err=%v", err)
	}
	client := sink.NewHTTPClient(cfg.Sink.BaseURL, token)
	if cfg.Sink.StatePath != "" {
		client.StatePath = cfg.Sink.StatePath
	}
	if cfg.Sink.EventsPath != "" {
		client.EventsPath = cfg.Sink.EventsPath
	}

	syncer := remote.NewSyncer(store, outbox, client, float64(cfg.Outbox.WritesPerSecond))
	loader := feed.NewLoader(cfg.Feed.URL, cfg.Feed.StatusURL, time.Duration(cfg.Feed.TimeoutSeconds)*time.Second)
	refresher := refresh.NewRefresher(loader, syncer, store, hub,
		time.Duration(cfg.Feed.RetryDelayMS)*time.Millisecond)

	controller := action.NewController(store, syncer, func() {
		refresher.Rebuild()
		hub.Publish(events.MakeEvent("", "state_changed", 1, nil))
	}, time.Duration(cfg.Undo.WindowSeconds)*time.Second)
	submitter := submit.NewService(syncer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Every(ctx, time.Duration(cfg.Refresh.IntervalSeconds)*time.Second, "refresh", func(ctx context.Context) error {
		refresher.Refresh(ctx)
		return nil
	})
	go scheduler.Every(ctx, time.Duration(cfg.Outbox.FlushSeconds)*time.Second, "outbox", func(ctx context.Context) error {
		syncer.FlushOutbox(ctx)
		return nil
	})

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:            hub,
		Refresher:      refresher,
		Controller:     controller,
		Submitter:      submitter,
		Outbox:         outbox,
		CfgVal:         &cfgVal,
		UserCfgPath:    userCfgPath,
		LoadCfg:        loadCfg,
		TriggerRefresh: func() { go refresher.Refresh(context.Background()) },
	})

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.Cors(cfg.App.AllowOrigin),
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// The shell shuts the engine down with a token it reads from our log.
	shutdownToken := newToken()
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("X-Shutdown-Token") != shutdownToken {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		stop()
	})

	log.Printf("level=info msg=\"engine listening\" addr=http://%s db=%s shutdown_token=%s", addr, dbPath, shutdownToken)

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Printf("level=info msg=\"engine stopped\"")
}

func newToken() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
