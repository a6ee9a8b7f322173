package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"procurement/db"
	"procurement/models"

	"go.uber.org/zap"
)

// UserStore часть хранилища, нужная сервису аутентификации
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error)
}

// Notifier доставляет токен сброса пароля пользователю
type Notifier interface {
	SendPasswordReset(ctx context.Context, u *models.User, token string) error
}

type Service struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   *TokenService
	notifier Notifier
	resetTTL time.Duration
	// таймаут доставки письма, отсчитывается отдельно от запроса
	notifyTimeout time.Duration
	pending       sync.WaitGroup
	log           *zap.Logger
	now           func() time.Time
}

type Options struct {
	ResetTTL      time.Duration
	NotifyTimeout time.Duration
	Logger        *zap.Logger
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenService, notifier Notifier, opts Options) *Service {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		resetTTL:      opts.ResetTTL,
		notifyTimeout: opts.NotifyTimeout,
		log:           opts.Logger,
		now:           time.Now,
	}
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

type RegisterInput struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Role          string  `json:"role"`
	CompanyName   string  `json:"company_name"`
	ContactPerson string  `json:"contact_person"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	GSTNumber     string  `json:"gst_number"`
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("Name is required")
	case strings.TrimSpace(in.Email) == "":
		return invalid("Email is required")
	case in.Password == "":
		return invalid("Password is required")
	case in.Role == "":
		return invalid("Role is required")
	case !models.Role(in.Role).Valid():
		return invalid("Invalid role. Must be one of: project_owner, vendor, admin")
	case strings.TrimSpace(in.CompanyName) == "":
		return invalid("Company name is required")
	case strings.TrimSpace(in.ContactPerson) == "":
		return invalid("Contact person is required")
	case strings.TrimSpace(in.GSTNumber) == "":
		return invalid("GST number is required")
	}
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func str(s string) *string {
	return &s
}

// Register создаёт пользователя и сразу выдаёт токен
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	email := strings.TrimSpace(in.Email)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  hash,
		Role:          models.Role(in.Role),
		CompanyName:   str(strings.TrimSpace(in.CompanyName)),
		ContactPerson: str(strings.TrimSpace(in.ContactPerson)),
		Phone:         trimmed(in.Phone),
		Address:       trimmed(in.Address),
		GSTNumber:     str(strings.TrimSpace(in.GSTNumber)),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		// гонка двух регистраций на один email
		if errors.Is(err, db.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", invalid("Email and password are required")
	}
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		return nil, "", fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ForgotPassword возвращает токен только для существующего email, иначе пустую строку.
// Вызывающий отвечает одинаково в обоих случаях.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", invalid("Email is required")
	}
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	if s.notifier != nil {
		s.pending.Add(1)
		go s.sendReset(context.WithoutCancel(ctx), u, token)
	}
	return token, nil
}

// sendReset доставляет токен в фоне, ответ на запрос её не ждёт
func (s *Service) sendReset(parent context.Context, u *models.User, token string) {
	defer s.pending.Done()
	ctx, cancel := context.WithTimeout(parent, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.SendPasswordReset(ctx, u, token); err != nil {
		s.log.Warn("password reset notification failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}

// Wait дожидается уведомлений, уже отправленных в фон
func (s *Service) Wait() {
	s.pending.Wait()
}

// ResetPassword гасит токен в одной операции с заменой пароля
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return invalid("Token and new password are required")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.users.ConsumeResetToken(ctx, token, hash, s.now())
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("consume reset token: %w", err)
	}

	// токен не погашен: различаем просроченный и неизвестный
	u, err := s.users.GetUserByResetToken(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if u.ResetTokenExpiry != nil && !u.ResetTokenExpiry.After(s.now()) {
		return ErrResetTokenExpired
	}
	return ErrResetTokenInvalid
}
