package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const unnamedUser = "Unnamed User"

// Repository 是会话管理需要的目录和身份存储
type Repository interface {
	GetUserByUID(ctx context.Context, uid string) (*domain.User, error)
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	EnsureUser(ctx context.Context, user *domain.User) (bool, error)
	PutUser(ctx context.Context, user *domain.User) error
	CreateIdentity(ctx context.Context, identity *domain.Identity) error
	GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetIdentityByUID(ctx context.Context, uid string) (*domain.Identity, error)
	UpdateIdentityDisplayName(ctx context.Context, uid string, displayName string) error
}

type Store interface {
	SaveSession(ctx context.Context, sessionID, uid string, expiresAt time.Time) error
	LookupSession(ctx context.Context, sessionID string) (string, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

type MailQueue interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

type AuthClaims struct {
	jwt.RegisteredClaims
}

type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type Manager struct {
	repo   Repository
	store  Store
	mail   MailQueue
	secret []byte
	ttl    time.Duration
	state  *Cell[Transition]
}

func NewManager(cfg *config.Config, repo Repository, store Store, mail MailQueue, state *Cell[Transition]) *Manager {
	return &Manager{
		repo:   repo,
		store:  store,
		mail:   mail,
		secret: []byte(cfg.JWT.Secret),
		ttl:    time.Duration(cfg.JWT.Expiration) * time.Second,
		state:  state,
	}
}

func (m *Manager) advance(a *attempt, to State, err error) {
	if !a.advance(to, err) {
		slog.Error("非法的认证状态转移", "identifier", a.identifier, "from", a.state, "to", to)
	}
}

// normalizeEmail 邮箱不区分大小写，统一保存和查找小写形式
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login 使用邮箱或用户名登录。不含 @ 的标识先通过目录按名字解析成邮箱，
// 找不到时直接返回 domain.ErrNotFound，不会去校验密码。
func (m *Manager) Login(ctx context.Context, identifier, password string) (*Session, error) {
	a := newAttempt(m.state, identifier, "", StateUnauthenticated)
	m.advance(a, StateAuthenticating, nil)

	s, err := m.login(ctx, identifier, password)
	if err != nil {
		m.advance(a, StateUnauthenticated, err)
		return nil, err
	}

	a.uid = s.User.UID
	m.advance(a, StateAuthenticated, nil)
	return s, nil
}

func (m *Manager) login(ctx context.Context, identifier, password string) (*Session, error) {
	email := normalizeEmail(identifier)
	if !strings.Contains(identifier, "@") {
		user, err := m.repo.GetUserByName(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", identifier, err)
		}
		email = user.Email
	}

	identity, err := m.repo.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := m.ensureDirectoryRecord(ctx, identity)
	if err != nil {
		return nil, err
	}

	return m.issue(ctx, user)
}

// Register 依次创建身份、设置显示名、写入目录记录并签发会话，这几步不是原子的。
// 身份创建成功而目录记录写入失败时，下一次登录或鉴权会补齐目录记录。
func (m *Manager) Register(ctx context.Context, name, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	a := newAttempt(m.state, email, "", StateUnauthenticated)
	m.advance(a, StateAuthenticating, nil)

	s, err := m.register(ctx, name, email, password)
	if err != nil {
		m.advance(a, StateUnauthenticated, err)
		return nil, err
	}

	a.uid = s.User.UID
	m.advance(a, StateAuthenticated, nil)

	// 欢迎邮件发送失败不影响注册
	if err := m.mail.PublishMail(ctx, domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   email,
		Data: domain.WelcomeMailData{Name: name},
	}); err != nil {
		slog.Error("无法发布欢迎邮件", "email", email, "error", err)
	}

	return s, nil
}

func (m *Manager) register(ctx context.Context, name, email, password string) (*Session, error) {
	// 名字同时是登录别名和提及标记，不允许重复
	if _, err := m.repo.GetUserByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: 用户名 %s 已被使用", domain.ErrValidation, name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := m.repo.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}

	if err := m.repo.UpdateIdentityDisplayName(ctx, identity.UID, name); err != nil {
		return nil, err
	}

	user := &domain.User{
		UID:   identity.UID,
		Name:  name,
		Email: email,
	}
	if err := m.repo.PutUser(ctx, user); err != nil {
		return nil, err
	}

	return m.issue(ctx, user)
}

// Authenticate 校验令牌和会话，并确保目录中存在对应的用户记录
func (m *Manager) Authenticate(ctx context.Context, token string) (*domain.User, string, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	uid, err := m.store.LookupSession(ctx, claims.ID)
	if err != nil {
		return nil, "", err
	}
	if uid != claims.Subject {
		return nil, "", domain.ErrSessionRevoked
	}

	user, err := m.repo.GetUserByUID(ctx, uid)
	if err == nil {
		return user, claims.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	identity, err := m.repo.GetIdentityByUID(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	user, err = m.ensureDirectoryRecord(ctx, identity)
	if err != nil {
		return nil, "", err
	}

	return user, claims.ID, nil
}

func (m *Manager) Logout(ctx context.Context, sessionID, uid string) error {
	if err := m.store.RevokeSession(ctx, sessionID); err != nil {
		return err
	}

	m.advance(newAttempt(m.state, "", uid, StateAuthenticated), StateUnauthenticated, nil)
	return nil
}

// ensureDirectoryRecord 在目录记录缺失时用身份信息补齐，重复调用是安全的
func (m *Manager) ensureDirectoryRecord(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	name := identity.DisplayName
	if name == "" {
		name = unnamedUser
	}

	created, err := m.repo.EnsureUser(ctx, &domain.User{
		UID:   identity.UID,
		Name:  name,
		Email: identity.Email,
	})
	if err != nil {
		return nil, err
	}
	if created {
		slog.Warn("已补齐缺失的目录记录", "uid", identity.UID, "name", name)
	}

	return m.repo.GetUserByUID(ctx, identity.UID)
}

func (m *Manager) issue(ctx context.Context, user *domain.User) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	sessionID := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.UID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	})
	ss, err := token.SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveSession(ctx, sessionID, user.UID, expiresAt); err != nil {
		return nil, err
	}

	return &Session{
		ID:        sessionID,
		Token:     ss,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
