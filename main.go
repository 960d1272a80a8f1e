package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"social-client/internal/api"
	"social-client/internal/chat"
	"social-client/internal/config"
	"social-client/internal/handlers"
	"social-client/internal/models"
	"social-client/internal/notifications"
	"social-client/internal/notify"
	"social-client/internal/observability"
	"social-client/internal/policy"
	"social-client/internal/rabbitmq"
	"social-client/internal/session"
	"social-client/internal/store"
	"social-client/internal/telemetry"
	"social-client/internal/ws"
)

const serviceName = "social-client"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("amqp publisher mode=%s reason=%s", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.client", serviceName, cfg.Environment)

	kv, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DSN:         cfg.StoreDSN,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer kv.Close()

	sessions := session.NewStore(kv)
	if _, err := sessions.Load(ctx); err != nil {
		log.Printf("failed to restore session: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, sessions, cfg.RequestTimeout, api.WithAuditEmitter(auditEmitter))
	if !sessions.LoggedIn() && cfg.LoginEmail != "" {
		if _, err := client.Login(ctx, models.LoginRequest{Email: cfg.LoginEmail, Password: cfg.LoginPassword}); err != nil {
			log.Fatalf("login failed: %s", api.UserMessage(err))
		}
	}

	app := policy.NewAppState()
	realtime := ws.NewManager(ws.Options{
		URL:               cfg.RealtimeURL,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectAttempts: cfg.ReconnectAttempts,
	}, sessions, app, notify.NewPublisherNotifier(publisher))

	inbox := chat.NewInbox(client, realtime, app, sessions)
	conversation := chat.NewController(client, realtime, app, chat.WithReadAcknowledger(inbox))
	notes := notifications.NewController(client, realtime)

	if sessions.LoggedIn() {
		startSession(ctx, realtime, inbox, notes)
	} else {
		log.Printf("no session, set LOGIN_EMAIL and LOGIN_PASSWORD to sign in")
	}
	defer notes.Stop()
	defer conversation.Close()
	defer inbox.Stop()
	defer realtime.Disconnect()

	teardown := func() { endSession(realtime, conversation, inbox, notes) }
	expired := sessions.Expired()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-expired:
				log.Printf("session expired, tearing down session state")
				teardown()
			}
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	status := handlers.NewStatusHandler(sessions, realtime, notes, inbox, app)
	router := handlers.NewRouter(status, handlers.RouterOptions{
		ServiceName: serviceName,
		Token:       cfg.StatusToken,
		Debug:       cfg.DebugRoutes,
		Emitter:     auditEmitter,
		Search:      handlers.NewSearchHandler(client, store.NewSearchHistory(kv)),
		Chat:        handlers.NewChatHandler(conversation),
		Social:      handlers.NewSocialHandler(client),
		Session:     handlers.NewSessionHandler(client, teardown),
	})

	srv := &http.Server{Addr: cfg.StatusAddr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("status server error: %v", err)
		}
	}()
	log.Printf("status server listening on %s", cfg.StatusAddr)

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("status server shutdown: %v", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}
}

// startSession connects realtime and primes the inbox and notification state.
func startSession(ctx context.Context, realtime *ws.Manager, inbox *chat.Inbox, notes *notifications.Controller) {
	if err := realtime.Connect(ctx); err != nil {
		log.Printf("realtime connect failed: %v", err)
	}

	inbox.Start()
	if err := inbox.Load(ctx); err != nil {
		log.Printf("inbox load failed: %s", api.UserMessage(err))
	}

	notes.Start(ctx)
	if err := notes.FetchNotifications(ctx, "", 20); err != nil {
		log.Printf("notifications load failed: %s", api.UserMessage(err))
	}
	if err := notes.FetchUnreadCount(ctx); err != nil {
		log.Printf("unread count failed: %s", api.UserMessage(err))
	}
}

// endSession drops everything scoped to the signed-in user so /state stops
// reporting it and startSession can run again after the next login.
func endSession(realtime *ws.Manager, conversation *chat.Controller, inbox *chat.Inbox, notes *notifications.Controller) {
	conversation.Close()
	realtime.Disconnect()
	inbox.Reset()
	notes.Reset()
}
