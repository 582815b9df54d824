package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/config"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/jwt"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials    = apperrors.New(apperrors.KindUnauthorized, 20001, "邮箱或密码错误")
	ErrUserNotFound          = apperrors.New(apperrors.KindNotFound, 20002, "用户不存在")
	ErrInvalidRefreshToken   = apperrors.New(apperrors.KindUnauthorized, 20003, "刷新令牌无效或已过期")
	ErrOldPasswordMismatch   = apperrors.New(apperrors.KindValidation, 20004, "原密码错误")
	ErrResetTokenInvalid     = apperrors.New(apperrors.KindValidation, 20005, "重置令牌无效或已过期")
	ErrTokenStoreUnavailable = apperrors.New(apperrors.KindUnexpected, 20006, "令牌服务暂不可用，请稍后重试")
	ErrAccountGone           = apperrors.New(apperrors.KindUnauthorized, 20007, "账号已删除，请重新登录")
)

// resetAcknowledgement 无论邮箱是否存在都返回同一提示，避免枚举账号
const resetAcknowledgement = "如果该邮箱已注册，重置说明将发送给账号本人"

// resetTokenBytes 重置令牌随机字节数（hex 编码后 40 字符）
const resetTokenBytes = 20

// TokenStore 令牌存储（黑名单与一次性重置令牌），由 pkg/redis.Client 实现
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout 将当前 Access Token 加入黑名单直至其过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req *dto.RequestPasswordResetRequest) (*dto.PasswordResetResponse, error)
	ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error
	// Identify 读取用户当前的角色与部门，供认证中间件构造调用方
	Identify(ctx context.Context, userID string) (access.Caller, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	tokens TokenStore
	sender ResetTokenSender
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// tokens 或 sender 为 nil 时自助重置密码不可用
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	sender ResetTokenSender,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		tokens: tokens,
		sender: sender,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	// 重新读取用户：角色或部门可能已变化，已删除的用户不可续期
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.tokens == nil {
		s.logger.Warn("令牌存储不可用，注销未加入黑名单", zap.String("jti", jti))
		return nil
	}
	if err := s.tokens.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("加入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Identify(ctx context.Context, userID string) (access.Caller, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Caller{}, ErrAccountGone
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return access.Caller{}, err
	}
	caller := access.Caller{UserID: user.UserID, Role: user.Role}
	if user.DepartmentID != nil {
		caller.DepartmentID = *user.DepartmentID
	}
	return caller, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordMismatch
	}

	return s.setPassword(ctx, userID, req.NewPassword)
}

// RequestPasswordReset 签发一次性重置令牌并交给投递通道。
// 响应只有固定提示，邮箱不存在时同样返回成功。
func (s *authService) RequestPasswordReset(ctx context.Context, req *dto.RequestPasswordResetRequest) (*dto.PasswordResetResponse, error) {
	if s.tokens == nil || s.sender == nil {
		return nil, ErrTokenStoreUnavailable
	}
	ack := &dto.PasswordResetResponse{Message: resetAcknowledgement}

	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ack, nil
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	token, err := newResetToken()
	if err != nil {
		s.logger.Error("生成重置令牌失败", zap.Error(err))
		return nil, err
	}

	ttl := s.cfg.Auth.ResetTokenTTL
	if err := s.tokens.SaveResetToken(ctx, token, user.UserID, ttl); err != nil {
		s.logger.Error("保存重置令牌失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}

	// 投递失败不改变响应，否则可据此判断邮箱是否存在
	if err := s.sender.SendResetToken(ctx, user, token, ttl); err != nil {
		s.logger.Error("投递重置令牌失败", zap.String("user_id", user.UserID), zap.Error(err))
		return ack, nil
	}

	s.logger.Info("已签发密码重置令牌", zap.String("user_id", user.UserID))
	return ack, nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error {
	if s.tokens == nil {
		return ErrTokenStoreUnavailable
	}

	userID, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return ErrResetTokenInvalid
		}
		s.logger.Error("读取重置令牌失败", zap.Error(err))
		return err
	}

	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	return s.setPassword(ctx, userID, req.Password)
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	deptID := user.DepartmentIDValue()

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, deptID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, deptID)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

func (s *authService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.User.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
