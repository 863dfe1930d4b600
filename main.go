package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/config"
	"adventurebuddha/internal/db"
	"adventurebuddha/internal/events"
	router "adventurebuddha/internal/http"
	"adventurebuddha/internal/http/handlers"
	"adventurebuddha/internal/knowledge"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/services"
	"adventurebuddha/internal/utils"
	"adventurebuddha/internal/workers"

	"github.com/gin-gonic/gin"
)

const lockCleanupInterval = time.Minute

func main() {
	env := config.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	conn := config.ConnectDB(env)
	defer config.CloseDB()
	if env.DBAutoMigrate {
		if err := db.EnsureSchema(conn); err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
	}

	rdb := config.ConnectRedis(env)
	defer config.CloseRedis()

	profiles := config.DefaultAgentProfiles()
	if env.AgentsConfig != "" {
		p, err := config.LoadAgentProfiles(env.AgentsConfig)
		if err != nil {
			log.Printf("agents config %s ignored: %v", env.AgentsConfig, err)
		} else {
			profiles = p
		}
	}

	store, err := knowledge.Open(env.KnowledgeDir)
	if err != nil {
		log.Printf("knowledge store unavailable, agents answer without retrieval: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	model := llm.New(env.OpenRouterAPIKey, env.OpenRouterBaseURL, env.AIModel, env.AIEmbeddingModel)
	sender := whatsapp.New(env.WhatsAppUseMock, whatsapp.HTTPConfig{
		BaseURL:    env.WhatsAppAPIURL,
		APIKey:     env.WhatsAppAPIKey,
		RetryCount: env.WhatsAppRetryCount,
		Timeout:    env.WhatsAppTimeout,
	})

	hub := realtime.NewHub()
	queue := workers.NewCampaignWorker(rdb)

	deps := handlers.Deps{
		Env:       env,
		DB:        conn,
		Hub:       hub,
		LLM:       model,
		Sender:    sender,
		Knowledge: store,
		Profiles:  profiles,
		Queue:     queue,
		Tokens: services.Tokens{
			Secret:     []byte(env.JWTSecret),
			AccessTTL:  env.JWTAccessTTL,
			RefreshTTL: env.JWTRefreshTTL,
		},
		Google: services.NewGoogleAuth(env.GoogleClientID, env.GoogleSecret, env.GoogleRedirect),
	}
	if env.FirebaseProject != "" {
		deps.Firebase = &services.FirebaseVerifier{ProjectID: env.FirebaseProject}
	}
	if rdb != nil {
		deps.Holder = services.RedisSeatHolder{Client: rdb}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	indexer := services.KnowledgeIndexer{
		Store:    store,
		Trips:    repositories.TripRepository{DB: conn},
		Embedder: model,
	}
	deps.TripsChanged = func() {
		go func() {
			if err := indexer.RebuildTrips(ctx); err != nil {
				utils.LogEvent(utils.WorkerTag("knowledge"), "agents", "rebuild_failed", err.Error())
			}
		}()
	}

	h := handlers.New(deps)
	recorder := services.ActivityRecorder{Dashboard: h.Dashboard(utils.WorkerTag("activity")), Notifier: hub}

	var consumer *events.Consumer
	if env.RabbitMQURL != "" {
		pub, err := events.NewRabbitPublisher(env.RabbitMQURL)
		if err != nil {
			log.Printf("rabbitmq unavailable, dispatching events in process: %v", err)
		} else {
			defer pub.Close()
			h.Events = pub
			if consumer, err = events.NewConsumer(env.RabbitMQURL); err != nil {
				log.Printf("rabbitmq consumer unavailable: %v", err)
				consumer = nil
			} else {
				defer consumer.Close()
			}
		}
	}
	if consumer == nil {
		h.Events = events.Local{Handler: recorder.Handle}
	}

	if err := indexer.SeedFAQ(ctx); err != nil {
		log.Printf("knowledge faq seed failed: %v", err)
	}
	if err := indexer.RebuildTrips(ctx); err != nil {
		log.Printf("knowledge trip index failed: %v", err)
	}

	queue.Process = h.CampaignSender().ProcessBatch
	queue.Resume = repositories.CampaignRepository{DB: conn}.Runnable

	var wg sync.WaitGroup
	background := func(run func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run()
		}()
	}
	background(func() { queue.Run(ctx) })
	background(func() {
		seats := services.SeatService{
			Locks:     repositories.SeatLockRepository{DB: conn},
			Holder:    deps.Holder,
			Notifier:  hub,
			RequestID: utils.WorkerTag("locks"),
		}
		workers.RunLockCleanup(ctx, seats, lockCleanupInterval)
	})
	background(func() {
		workers.RunDashboardPush(ctx, h.Dashboard(utils.WorkerTag("dashboard")), hub, env.DashboardPushInterval)
	})
	if consumer != nil {
		background(func() { workers.RunActivityConsumer(ctx, consumer, recorder.Handle) })
	}

	r := router.NewRouter(h, env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
	stop()
	wg.Wait()

	log.Println("server stopped cleanly.")
}
