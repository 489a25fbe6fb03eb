package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/handler"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/queue"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/repository"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/session"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/storage"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/tracker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 执行数据库迁移
	 **********************************************/
	if err := repository.RunMigrations(ctx, dbpool); err != nil {
		logger.Error("无法执行数据库迁移", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	if _, err := queue.DeclareMailQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}
	mailPublisher := queue.NewMailPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	redisCtx, redisCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer redisCancel()
	if err := rdb.Ping(redisCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 创建头像存储
	 **********************************************/
	avatars, err := storage.NewAvatarStore(context.Background(), cfg)
	if err != nil {
		logger.Error("无法创建头像存储", "error", err)
		return
	}
	if avatars == nil {
		logger.Warn("未配置 S3，头像上传功能已关闭")
	}

	/**********************************************
	 * 创建会话管理和业务服务
	 **********************************************/
	authState := session.NewCell(session.Transition{To: session.StateUnauthenticated})
	unsubscribe := authState.Subscribe(func(t session.Transition) {
		if t.Err != nil {
			logger.Info("认证状态变化", "identifier", t.Identifier, "from", t.From, "to", t.To, "error", t.Err)
			return
		}
		logger.Info("认证状态变化", "identifier", t.Identifier, "uid", t.UID, "from", t.From, "to", t.To)
	})
	defer unsubscribe()

	sessions := session.NewManager(cfg, repo, session.NewRedisStore(rdb), mailPublisher, authState)
	svc := tracker.NewService(repo, realtime.NewBroker(rdb), mailPublisher)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, sessions, svc, avatars)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// 实时推送是长连接，Shutdown 不会主动断开，需要在超时后强制关闭
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
		_ = srv.Close()
	}
	logger.Info("服务器已成功关闭")
}
