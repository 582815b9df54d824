package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/config"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/database"
	applogger "github.com/mrbenboyy/gestion-pointage-backend/pkg/logger"
)

// env 命令共享的运行环境
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
}

func (e *env) close() {
	if e.sqlDB != nil {
		_ = e.sqlDB.Close()
	}
	_ = e.logger.Sync()
}

func openEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db, sqlDB: sqlDB}, nil
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hrctl",
		Short:         "考勤系统运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	root.AddCommand(newMigrateCmd(&configPath), newCreateAdminCmd(&configPath))
	return root
}

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()
			return database.RunMigrations(e.sqlDB, e.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚最近的迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps 必须大于 0")
			}
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()
			return database.RollbackMigrations(e.sqlDB, steps, e.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")

	cmd.AddCommand(up, down)
	return cmd
}

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var req dto.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建管理员账号（用于首次部署）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Email == "" || len(req.Password) < 8 {
				return fmt.Errorf("--email 必填，--password 不少于 8 位")
			}
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			req.Role = model.RoleAdmin
			userSvc := service.NewUserService(repository.NewRepository(e.db), e.logger)
			// 系统身份：无用户 ID，审计字段留空
			user, err := userSvc.Create(cmd.Context(), access.Caller{Role: model.RoleAdmin}, &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "管理员已创建: %s <%s>\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "管理员", "姓名")
	cmd.Flags().StringVar(&req.Email, "email", "", "登录邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "初始密码")
	return cmd
}
