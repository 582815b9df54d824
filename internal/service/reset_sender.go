package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/config"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// ResetTokenSender 将密码重置令牌投递给账号本人（邮件、IM 等）。
// 令牌只经由投递通道到达用户，绝不出现在接口响应中。
type ResetTokenSender interface {
	SendResetToken(ctx context.Context, user *model.User, token string, ttl time.Duration) error
}

// NewResetTokenSender 按配置选择投递方式，disabled 时返回 nil（自助重置不可用）
func NewResetTokenSender(mode string, logger *zap.Logger) ResetTokenSender {
	switch mode {
	case config.ResetDeliveryLog:
		return &logResetSender{logger: logger.Named("password_reset")}
	default:
		return nil
	}
}

// logResetSender 把令牌写入服务日志，仅供本地开发
type logResetSender struct {
	logger *zap.Logger
}

func (s *logResetSender) SendResetToken(_ context.Context, user *model.User, token string, ttl time.Duration) error {
	s.logger.Info("密码重置令牌（开发环境日志投递）",
		zap.String("user_id", user.UserID),
		zap.String("email", user.Email),
		zap.String("token", token),
		zap.Duration("ttl", ttl),
	)
	return nil
}
