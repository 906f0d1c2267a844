package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"neon-rush/internal/api"
	"neon-rush/internal/config"
	"neon-rush/internal/leaderboard"
	"neon-rush/internal/sim/journal"
	"neon-rush/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🕹️ ================================")
	log.Println("🕹️  NEON RUSH - ARCADE ENGINE")
	log.Println("🕹️  runner / elimination / drift")
	log.Println("🕹️ ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	simCfg := appConfig.Sim
	rateCfg := appConfig.RateLimit

	port := strconv.Itoa(serverCfg.Port)
	log.Printf("🎮 Config: %d TPS, data dir %q, seed %d", simCfg.TickRate, serverCfg.DataDir, simCfg.Seed)

	// Diagnostics journal
	jrnl := journal.New()
	journalPath := getEnvWithDefault("JOURNAL_PATH", "journal.jsonl")
	if err := jrnl.Start(journalPath); err != nil {
		log.Printf("⚠️ Journal disabled: %v", err)
		jrnl = nil
	} else {
		log.Printf("📝 Journal: %s", journalPath)
		defer jrnl.Stop()
	}

	// Local persistence: results log and ghost blobs
	st, err := store.New(serverCfg.DataDir)
	if err != nil {
		log.Fatalf("❌ Store init failed: %v", err)
	}
	defer st.Close()
	log.Printf("💾 Store: %s", serverCfg.DataDir)

	// Per-mode leaderboards
	boards := leaderboard.NewSet()

	// Director wires engines to the shared services
	director := api.NewDirector(api.DirectorConfig{
		TickRate: simCfg.TickRate,
		Seed:     simCfg.Seed,
		Journal:  jrnl,
		Store:    st,
		Boards:   boards,
	})
	defer director.Stop()

	// WebSocket hub: snapshot push + key input
	api.SetAllowedOrigins(serverCfg.AllowedOrigins)
	hub := api.NewWebSocketHub(director, rateCfg.InputPerSecond)
	director.AttachHub(hub)
	go hub.Run()
	hub.StartBroadcastLoop()

	// Debug server (pprof + metrics, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Director: director,
		Boards:   boards,
		Store:    st,
		Journal:  jrnl,
		Hub:      hub,
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: rateCfg.RequestsPerSecond,
			Burst:             rateCfg.Burst,
			CleanupInterval:   api.DefaultRateLimitConfig.CleanupInterval,
		},
		CORSOrigins: serverCfg.AllowedOrigins,
	})

	go func() {
		addr := ":" + port
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)
		if err := http.ListenAndServe(addr, router); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
}

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
