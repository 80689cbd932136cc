package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Yam_Community/internal/config"
	"Yam_Community/internal/handler"
	"Yam_Community/internal/metrics"
	"Yam_Community/internal/moderation"
	"Yam_Community/internal/pkg"
	"Yam_Community/internal/repository/graph"
	"Yam_Community/internal/repository/memory"
	"Yam_Community/internal/repository/mysql"
	natsrepo "Yam_Community/internal/repository/nats"
	"Yam_Community/internal/repository/redis"
	"Yam_Community/internal/roster"
	"Yam_Community/internal/router"
	"Yam_Community/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := pkg.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err = run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

// graphStores 图存储的两种后端共用同一组接口
type graphStores struct {
	communities service.CommunityStore
	memberships service.MembershipStore
	posts       service.PostStore
	comments    service.CommentStore
	users       service.UserStore
	counters    service.CounterStore
	close       func(context.Context) error
}

func openGraph(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*graphStores, error) {
	if cfg.GraphBackend == config.GraphMemory {
		s := memory.NewStore()
		return &graphStores{
			communities: s.Communities(),
			memberships: s.Memberships(),
			posts:       s.Posts(),
			comments:    s.Comments(),
			users:       s.Users(),
			counters:    s.Counters(),
			close:       func(context.Context) error { return nil },
		}, nil
	}

	client, err := graph.Open(ctx, graph.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, m)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	if err = client.EnsureSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("neo4j schema: %w", err)
	}
	return &graphStores{
		communities: graph.NewCommunityRepository(client),
		memberships: graph.NewMembershipRepository(client),
		posts:       graph.NewPostRepository(client),
		comments:    graph.NewCommentRepository(client),
		users:       graph.NewUserRepository(client),
		counters:    graph.NewCounterRepository(client),
		close:       client.Close,
	}, nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	stores, err := openGraph(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() { _ = stores.close(context.Background()) }()

	// 连接redis
	rdb, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	db, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	if err = mysql.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var publisher service.Publisher = pkg.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Warn("kafka brokers not configured, domain events are dropped")
	}

	var (
		uploader service.Uploader
		media    *handler.MediaHandler
	)
	if cfg.NatsURL != "" {
		blobs, nc, err := natsrepo.Connect(ctx, cfg.NatsURL, cfg.MediaBucket, cfg.MediaBaseURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		uploader = blobs
		media = handler.NewMediaHandler(blobs)
	} else {
		log.Warn("nats not configured, image uploads are disabled")
	}

	gateway := moderation.NewGateway(moderation.Config{
		TextURL:  cfg.TextClassifierURL,
		ImageURL: cfg.ImageClassifierURL,
		Timeout:  cfg.ClassifierTimeout,
	}, &http.Client{}, m)

	tasks := mysql.NewReconcileRepository(db)
	communities := service.NewCommunityService(service.CommunityDeps{
		Communities: stores.communities,
		Memberships: stores.memberships,
		Invites:     redis.NewInviteRepository(rdb, cfg.InviteCodeTTL),
		Roles:       mysql.NewRoleRepository(db),
		Tasks:       tasks,
		Moderator:   gateway,
		Uploader:    uploader,
		Publisher:   publisher,
		Logger:      log.Named("community"),
		Metrics:     m,

		UploadTimeout:    cfg.UploadTimeout,
		RoleStoreTimeout: cfg.RoleStoreTimeout,
	})

	var members service.MembershipChecker = communities.Guard()
	if cfg.RosterURL != "" {
		members = roster.NewClient(cfg.RosterURL, cfg.RosterTimeout, &http.Client{}).WithToken(cfg.RosterToken)
	}
	posts := service.NewPostService(service.PostDeps{
		Posts:     stores.posts,
		Members:   members,
		Moderator: gateway,
		Uploader:  uploader,
		Publisher: publisher,
		Logger:    log.Named("post"),
		Metrics:   m,

		UploadTimeout: cfg.UploadTimeout,
	})
	comments := service.NewCommentService(service.CommentDeps{
		Comments:  stores.comments,
		Posts:     stores.posts,
		Members:   members,
		Moderator: gateway,
		Publisher: publisher,
		Logger:    log.Named("comment"),
		Metrics:   m,
	})

	relayer := service.NewReconcileRelayer(tasks, communities.ReconcileHandlers(),
		cfg.ReconcileInterval, cfg.ReconcileBatchSize, cfg.ReconcileMaxRetry, log.Named("reconcile"), m)
	go relayer.Run(ctx)
	counters := service.NewCounterReconciler(stores.counters, cfg.CounterInterval, cfg.CounterBatchSize, log.Named("counters"), m)
	go counters.ReconcilerRun(ctx)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.InitRouter(router.Handlers{
		Community: handler.NewCommunityHandler(communities),
		Post:      handler.NewPostHandler(posts),
		Comment:   handler.NewCommentHandler(comments),
		Like:      handler.NewLikeHandler(posts, comments),
		User:      handler.NewUserHandler(service.NewUserService(stores.users)),
		Media:     media,
	}, pkg.NewTokenVerifier(cfg.JWTSecret), reg, log.Named("http"))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("graph", cfg.GraphBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
