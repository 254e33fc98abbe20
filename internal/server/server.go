package server

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/teamflow/internal/broadcast"
	"github.com/thereayou/teamflow/internal/database"
	"github.com/thereayou/teamflow/internal/handlers"
	"github.com/thereayou/teamflow/internal/notify"
	"github.com/thereayou/teamflow/internal/presence"
	"github.com/thereayou/teamflow/internal/queue"
	"github.com/thereayou/teamflow/internal/ws"
	"github.com/thereayou/teamflow/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub

	workers []*notify.Worker
	cancel  context.CancelFunc
}

func NewServer() *Server {
	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	// Realtime-ядро: hub -> broadcast router -> presence tracker
	hub := ws.NewHub(dbConn)
	router := broadcast.NewRouter(hub)
	tracker := presence.NewTracker(presence.NewRedisStore(rdb), router)
	hub.SetPresence(tracker)
	hub.SetAuthorizer(dbConn)

	// Очереди доставки и воркеры
	notifQueue := queue.NewRedisQueue(rdb, "notifications")
	emailQueue := queue.NewRedisQueue(rdb, "emails")
	producer := notify.NewProducer(notifQueue, emailQueue)
	mailer := newMailerFromEnv()

	notifWorker := notify.NewWorker(notifQueue, dbConn, router, mailer)
	emailWorker := notify.NewWorker(emailQueue, dbConn, router, mailer)
	applyRetryPolicy(notifWorker)
	applyRetryPolicy(emailWorker)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	messageH := handlers.NewMessageHandler(dbConn, router)
	wsH := handlers.NewWebSocketHandler(hub, jwtMgr, rdb, messageH)
	conversationH := handlers.NewConversationHandler(dbConn, router)
	teamH := handlers.NewTeamHandler(dbConn, producer)
	taskH := handlers.NewTaskHandler(dbConn, producer)
	notificationH := handlers.NewNotificationHandler(dbConn, tracker)

	engine := gin.Default()
	APIEndpoints(engine, jwtMgr, rdb, authH, wsH, conversationH, teamH, taskH, notificationH)

	return &Server{
		Router:     engine,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		workers:    []*notify.Worker{notifWorker, emailWorker},
	}
}

func (s *Server) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.Hub.Run()
	for _, worker := range s.workers {
		go worker.Run(ctx)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}

// Stop останавливает воркеры и hub
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.Hub.Stop()
}

func newMailerFromEnv() notify.Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set, email delivery disabled")
		return nil
	}

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	return notify.NewSMTPMailer(
		host,
		port,
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
		os.Getenv("SMTP_FROM"),
	)
}

func applyRetryPolicy(worker *notify.Worker) {
	maxAttempts := notify.DefaultMaxAttempts
	if v, err := strconv.Atoi(os.Getenv("QUEUE_MAX_ATTEMPTS")); err == nil && v > 0 {
		maxAttempts = v
	}

	retryBase := notify.DefaultRetryBase
	if v, err := time.ParseDuration(os.Getenv("QUEUE_RETRY_BASE")); err == nil && v > 0 {
		retryBase = v
	}

	worker.SetRetryPolicy(maxAttempts, retryBase)
}
