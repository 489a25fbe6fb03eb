package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/repository"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/seed"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机候选人, 3: 导入内置候选人数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
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

	if err := repository.RunMigrations(ctx, dbpool); err != nil {
		logger.Error("无法执行数据库迁移", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作，每一步都有自己的查询超时
	ctx = context.Background()
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				identity, user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateIdentity(ctx, identity); err != nil {
					slog.Error("无法插入身份", slog.String("error", err.Error()))
					continue
				}
				if err := repo.PutUser(ctx, user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的候选人数量")
		} else {
			users, err := repo.GetAllUsers(ctx)
			if err != nil {
				slog.Error("无法获取所有用户", slog.String("error", err.Error()))
				return
			}
			if len(users) == 0 {
				slog.Error("请先插入用户")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				c := utils.GenerateRandomCandidate(cfg.Email.UserDomain, users)
				c.ID = uuid.NewString()
				// 随机选一个负责人作为创建者
				c.CreatedBy = c.AssignedUsers[rand.Intn(len(c.AssignedUsers))]

				if err := repo.CreateCandidate(ctx, c); err != nil {
					slog.Error("无法插入候选人", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入候选人成功", slog.Int("count", n-cnt))
		}
	case 3:
		seed.SeedRealData(ctx, repo, cfg.Seed.User.Password, cfg.Email.UserDomain)
	default:
		slog.Error("指定的操作非法")
	}
}
