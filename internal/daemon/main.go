// Package daemon wires the application together: database, Redis, the
// notification stream, background jobs and the web service.
package daemon

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	redis "github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/auth"
	"github.com/warga-app/warga-server/internal/comment"
	"github.com/warga-app/warga-server/internal/community"
	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/db/dsn"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/navigation"
	"github.com/warga-app/warga-server/internal/notify"
	"github.com/warga-app/warga-server/internal/otp"
	"github.com/warga-app/warga-server/internal/post"
	"github.com/warga-app/warga-server/internal/rbac"
	"github.com/warga-app/warga-server/internal/web"
	"github.com/warga-app/warga-server/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	cron       *cron.Cron
	publisher  notify.Publisher
}

// Start runs the background jobs and the web service, then waits for a
// shutdown signal.
func (d *Daemon) Start() error {
	d.cron.Start()

	go func() {
		d.webService.WaitShutdown()
	}()

	port := d.cfg.Webserver.Port
	if port == 0 {
		port = 8080
	}

	err := d.webService.Start(fmt.Sprintf(":%d", port))

	d.cron.Stop()

	if cErr := d.publisher.Close(); cErr != nil {
		log.Error().Err(cErr).Msg("failed to close notification publisher")
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := openDB(cfg)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Setting{},
		&models.Community{},
		&models.Role{},
		&models.PermissionFlag{},
		&models.Membership{},
		&models.Post{},
		&models.PollOption{},
		&models.Comment{},
		&models.CommentVote{},
		&models.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	codeStore := otp.NewStore(redisClient, time.Duration(cfg.OTP.TTLMinutes)*time.Minute)

	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).
			Msg("notification stream enabled")
	}

	authService := auth.NewService(db, auth.Options{
		Codes:      codeStore,
		CodeLength: cfg.OTP.CodeLength,
		SessionTTL: time.Duration(cfg.Session.ExpiryHours) * time.Hour,
		Issuer:     cfg.OTP.Issuer,
	})
	rbacService := rbac.NewService(db)
	communityService := community.NewService(db, rbacService)
	navigationService := navigation.NewService(db, rbacService, communityService)
	postService := post.NewService(db, rbacService, communityService)
	commentService := comment.NewService(db, rbacService, communityService, postService)
	notifyService := notify.NewService(db, publisher)

	deps := &handler.Deps{
		DB:          db,
		Auth:        authService,
		RBAC:        rbacService,
		Communities: communityService,
		Navigation:  navigationService,
		Posts:       postService,
		Comments:    commentService,
		Notify:      notifyService,
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc("@hourly", func() {
		count, err := authService.PurgeExpiredSessions()
		if err != nil {
			log.Error().Err(err).Msg("session purge failed")
			return
		}

		if count > 0 {
			log.Info().Int64("count", count).Msg("purged expired sessions")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule session purge")
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, deps),
		cron:       scheduler,
		publisher:  publisher,
	}
}

func openDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the services rely on.
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	return db
}
