package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/events"
	"github.com/vigild/vigil/internal/domain/message"
	"github.com/vigild/vigil/internal/domain/notification"
	"github.com/vigild/vigil/internal/domain/token"
	pg "github.com/vigild/vigil/internal/repository/postgres"

	"github.com/vigild/vigil/internal/auth"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated covers a missing, unknown or revoked token.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	// ErrUnavailable is transient: the caller should retry.
	ErrUnavailable = errors.New("unavailable")
	ErrBadRequest  = errors.New("bad request")
)

type Config struct {
	SessionSecret  []byte
	SessionTTL     time.Duration
	PublishTimeout time.Duration
	Now            func() time.Time
}

type Usecase struct {
	tokens   token.Store
	messages message.Store
	settings notification.SettingsRepo
	records  notification.Repo
	accounts account.Repo
	events   events.MessageEvents
	cfg      Config
	log      *zap.Logger
}

func NewUsecase(
	tokens token.Store,
	messages message.Store,
	settings notification.SettingsRepo,
	records notification.Repo,
	accounts account.Repo,
	ev events.MessageEvents,
	cfg Config,
	log *zap.Logger,
) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Usecase{
		tokens:   tokens,
		messages: messages,
		settings: settings,
		records:  records,
		accounts: accounts,
		events:   ev,
		cfg:      cfg,
		log:      log,
	}
}

// Ingest authenticates the bearer ingest token and hands the message to
// the decoupling channel. It returns once the broker has accepted the
// entry; persistence and notification happen out of band.
func (u *Usecase) Ingest(ctx context.Context, raw string, m message.Message) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrUnauthenticated
	}
	if m.Hostname == "" || m.Title == "" {
		return fmt.Errorf("%w: hostname and title are required", ErrBadRequest)
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = u.cfg.Now()
	}

	id, err := u.tokens.AccountOf(ctx, token.Token(raw))
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return ErrUnauthenticated
		}
		u.log.Error("token lookup", zap.Error(err))
		return ErrUnavailable
	}

	pubCtx, cancel := context.WithTimeout(ctx, u.cfg.PublishTimeout)
	defer cancel()
	if err := u.events.PublishMessage(pubCtx, id, m); err != nil {
		u.log.Error("publish message", zap.String("account_id", id.String()), zap.Error(err))
		return ErrUnavailable
	}
	return nil
}

func (u *Usecase) CreateToken(ctx context.Context, id account.ID) (token.Token, error) {
	return u.tokens.Create(ctx, id)
}

func (u *Usecase) ListTokens(ctx context.Context, id account.ID) ([]token.Token, error) {
	return u.tokens.TokensOf(ctx, id)
}

// RevokeToken is scoped to the calling account: tokens of other
// accounts look exactly like unknown ones.
func (u *Usecase) RevokeToken(ctx context.Context, id account.ID, t token.Token) error {
	if err := u.tokens.Revoke(ctx, id, t); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (u *Usecase) Hostnames(ctx context.Context, id account.ID) ([]string, error) {
	return u.messages.Hostnames(ctx, id)
}

func (u *Usecase) Messages(ctx context.Context, id account.ID, hostname string, limit int) ([]message.Message, error) {
	return u.messages.List(ctx, message.Key{AccountID: id, Hostname: hostname}, limit)
}

func (u *Usecase) GetAccount(ctx context.Context, id account.ID) (*account.Account, error) {
	a, err := u.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Notifications lists the account's sent-notification log, newest
// first.
func (u *Usecase) Notifications(ctx context.Context, id account.ID, limit int) ([]*notification.Record, error) {
	return u.records.ListByAccount(ctx, id, limit)
}

func (u *Usecase) GetSettings(ctx context.Context, id account.ID) (notification.Settings, error) {
	return u.settings.Get(ctx, id)
}

func (u *Usecase) SetSettings(ctx context.Context, id account.ID, s notification.Settings) error {
	return u.settings.Set(ctx, id, s)
}

// CreateAccount registers a new account and issues a session token for
// it. Verification/registration email flows live outside this service.
func (u *Usecase) CreateAccount(ctx context.Context, email string) (*account.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: invalid email", ErrBadRequest)
	}
	a := &account.Account{ID: account.NewID(), Email: email, CreatedAt: u.cfg.Now()}
	if err := u.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, "", fmt.Errorf("%w: email already registered", ErrBadRequest)
		}
		return nil, "", err
	}
	session, err := u.IssueSession(a.ID)
	if err != nil {
		return nil, "", err
	}
	return a, session, nil
}

func (u *Usecase) DeleteAccount(ctx context.Context, id account.ID) error {
	if err := u.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (u *Usecase) IssueSession(id account.ID) (string, error) {
	now := u.cfg.Now()
	claims := auth.AccessClaims{
		Sub: id.String(),
		Iat: now.Unix(),
		Exp: now.Add(u.cfg.SessionTTL).Unix(),
	}
	return claims.SignedString(u.cfg.SessionSecret)
}

// ResolveSession turns a session JWT into an explicit identity. Any
// parse or validation failure yields the anonymous identity.
func (u *Usecase) ResolveSession(raw string) auth.Identity {
	claims, err := auth.ParseAndValidate(raw, u.cfg.SessionSecret)
	if err != nil {
		return auth.Identity{}
	}
	return auth.Identity{AccountID: account.ID(claims.Sub)}
}
