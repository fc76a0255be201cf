// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, notifications) and
// composes bounded-context containers. This is the only place that knows
// about ALL modules.
package main

import (
	"context"
	"os"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/roastery-dev/roastery/pkg/config"
	"github.com/roastery-dev/roastery/pkg/fsx"
	"github.com/roastery-dev/roastery/pkg/fsx/fsxlocal"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/iamcontainer"
	"github.com/roastery-dev/roastery/pkg/jobx"
	"github.com/roastery-dev/roastery/pkg/jobx/jobxredis"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/notifx"
	"github.com/roastery-dev/roastery/pkg/notifx/notifxconsole"
	"github.com/roastery-dev/roastery/pkg/notifx/notifxqueue"
	"github.com/roastery-dev/roastery/pkg/notifx/notifxses"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client

	// Jobs is the background worker for queued email delivery. Nil unless
	// NOTIF_QUEUE_ENABLED is set.
	Jobs       *jobx.Client
	jobsCancel context.CancelFunc

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, notifications
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Notifications
	c.initNotifier()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initNotifier() {
	var provider notifx.EmailSender

	switch c.Config.Notif.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notif.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider = notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notif.FromAddress)
		logx.Infof("  ✅ SES notifier configured (region: %s)", c.Config.Notif.AWSRegion)

	case "console":
		provider = notifxconsole.NewConsoleProvider()
		logx.Warn("  ⚠️  Console notifier configured (emails are logged, not sent)")

	default:
		logx.Fatalf("Unknown NOTIF_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notif.Provider)
	}

	if c.Config.Notif.QueueEnabled {
		provider = c.startEmailQueue(provider)
	}

	c.Notifier = notifx.NewClient(provider)
	c.registerEmailTemplates()
}

// startEmailQueue puts the job queue between the notifier and the delivery
// provider. Sends enqueue; the returned worker retries actual delivery.
func (c *Container) startEmailQueue(delegate notifx.EmailSender) notifx.EmailSender {
	queue := jobxredis.NewRedisQueue(c.Redis)

	c.Jobs = jobx.NewClient(queue,
		jobx.WithQueues(c.Config.Notif.QueueName),
		jobx.WithConcurrency(c.Config.Notif.QueueConcurrency),
	)
	notifxqueue.RegisterHandler(c.Jobs, delegate)

	ctx, cancel := context.WithCancel(context.Background())
	c.jobsCancel = cancel
	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.Errorf("Email worker stopped: %v", err)
		}
	}()

	logx.Infof("  ✅ Email delivery queued (queue: %s, workers: %d)",
		c.Config.Notif.QueueName, c.Config.Notif.QueueConcurrency)

	return notifxqueue.NewQueueProvider(c.Jobs, c.Config.Notif.QueueName)
}

func (c *Container) registerEmailTemplates() {
	var overrides fsx.FileReader
	if dir := c.Config.Notif.TemplateDir; dir != "" {
		local, err := fsxlocal.NewLocalFileSystem(dir)
		if err != nil {
			logx.Fatalf("Invalid EMAIL_TEMPLATE_DIR %q: %v", dir, err)
		}
		overrides = local
		logx.Infof("  ✅ Email template overrides loaded from %s", dir)
	}

	if err := auth.RegisterEmailTemplates(context.Background(), c.Notifier, overrides); err != nil {
		logx.Fatalf("Failed to register email templates: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	iam, err := iamcontainer.New(context.Background(), iamcontainer.Deps{
		DB:       c.DB,
		Redis:    c.Redis,
		Cfg:      c.Config,
		Notifier: c.Notifier,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize IAM module: %v", err)
	}
	c.IAM = iam
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.jobsCancel != nil {
		c.jobsCancel()
		logx.Info("  ✅ Email worker stopped")
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
