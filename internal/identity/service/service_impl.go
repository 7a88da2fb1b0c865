package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	"github.com/vyoniqlabs/backoffice/internal/providers/email"
	pkgdb "github.com/vyoniqlabs/backoffice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  identitydomain.Repository
	Email email.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  identitydomain.Repository
	email email.Provider
}

func NewService(p Params) identitydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		repo:  p.Repo,
		email: p.Email,
	}
}

func (s *Service) Authenticate(ctx context.Context, token string) (*identitydomain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, identitydomain.ErrInvalidSession
	}

	session, err := s.repo.FindSession(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, identitydomain.ErrInvalidSession
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, identitydomain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, identitydomain.ErrInvalidSession
	}

	return &identitydomain.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	}, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*identitydomain.User, error) {
	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, identitydomain.ErrUserNotFound
	}
	return user, nil
}

// Provision is idempotent per email: an existing user is returned as-is and
// no duplicate account or credential is created.
func (s *Service) Provision(ctx context.Context, emailAddr, name string) (*identitydomain.User, bool, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" {
		return nil, false, identitydomain.ErrUserNotFound
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, emailAddr)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	oneTime := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(oneTime), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	user := &identitydomain.User{
		ID:           s.genID.Generate(),
		Email:        emailAddr,
		Name:         strings.TrimSpace(name),
		IsAdmin:      false,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		// Concurrent provisioning for the same email: fall back to the row
		// that won the race.
		if pkgdb.IsDuplicateKeyErr(err) {
			winner, findErr := s.repo.FindByEmail(ctx, s.db, emailAddr)
			if findErr != nil {
				return nil, false, findErr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	s.sendOneTimeCredential(ctx, user, oneTime)
	return user, true, nil
}

// Credential delivery is best-effort: a failed email must not fail the
// provisioning that already committed.
func (s *Service) sendOneTimeCredential(ctx context.Context, user *identitydomain.User, oneTime string) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>An account has been created for you at Vyoniq. Your one-time password is <strong>%s</strong>.</p>",
		user.Name, oneTime,
	)
	if err := s.email.Send(ctx, []string{user.Email}, "Your Vyoniq account", body); err != nil {
		s.log.Warn("one-time credential email failed",
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}
}
