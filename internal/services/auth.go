package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authrepos "github.com/dietoteka/dietoteka-backend/internal/data/repos/auth"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
	"github.com/dietoteka/dietoteka-backend/internal/platform/recaptcha"
	"github.com/dietoteka/dietoteka-backend/internal/platform/sendgrid"
)

const (
	passwordMinLen  = 8
	sessionTokenLen = 32
)

type SignupInput struct {
	InvitationToken string
	Password        string
	FirstName       string
	LastName        string
	CaptchaToken    string
	RemoteIP        string
}

type LoginInput struct {
	Email        string
	Password     string
	CaptchaToken string
	RemoteIP     string
}

// AuthResult pairs the authenticated user with the raw session token.
// The token leaves the service exactly once, here; only its hash is stored.
type AuthResult struct {
	User         *types.User
	SessionToken string
	ExpiresAt    time.Time
}

type AuthService interface {
	SignupWithInvitation(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, sessionToken string) error
	ValidateSession(ctx context.Context, sessionToken string) (*types.Session, *types.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	db                *gorm.DB
	log               *logger.Logger
	userRepo          authrepos.UserRepo
	sessionRepo       authrepos.SessionRepo
	invitationRepo    authrepos.InvitationRepo
	passwordResetRepo authrepos.PasswordResetRepo
	avatarService     AvatarService
	mailer            sendgrid.Client
	captcha           recaptcha.Verifier
	audit             AuditService

	sessionTTL time.Duration
	resetTTL   time.Duration
	bcryptCost int
	appBaseURL string
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo authrepos.UserRepo,
	sessionRepo authrepos.SessionRepo,
	invitationRepo authrepos.InvitationRepo,
	passwordResetRepo authrepos.PasswordResetRepo,
	avatarService AvatarService,
	mailer sendgrid.Client,
	captcha recaptcha.Verifier,
	audit AuditService,
) AuthService {
	return &authService{
		db:                db,
		log:               log.With("service", "AuthService"),
		userRepo:          userRepo,
		sessionRepo:       sessionRepo,
		invitationRepo:    invitationRepo,
		passwordResetRepo: passwordResetRepo,
		avatarService:     avatarService,
		mailer:            mailer,
		captcha:           captcha,
		audit:             audit,
		sessionTTL:        time.Duration(envutil.Int("SESSION_TTL_HOURS", 720)) * time.Hour,
		resetTTL:          time.Duration(envutil.Int("PASSWORD_RESET_TTL_MINUTES", 60)) * time.Minute,
		bcryptCost:        envutil.Int("BCRYPT_COST", bcrypt.DefaultCost),
		appBaseURL:        strings.TrimRight(envutil.String("APP_BASE_URL", "https://app.dietoteka.pl"), "/"),
	}
}

// verifyCaptcha is a no-op when no verifier is configured. A rejected
// token reads as 401; a gateway failure as 502.
func (as *authService) verifyCaptcha(ctx context.Context, token, remoteIP string) error {
	if as.captcha == nil {
		return nil
	}
	if err := as.captcha.Verify(ctx, token, remoteIP); err != nil {
		var ve *recaptcha.VerificationError
		if errors.As(err, &ve) {
			return apierr.Unauthorized(err)
		}
		return apierr.External(err)
	}
	return nil
}

func (as *authService) SignupWithInvitation(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if err := validatePassword(input.Password); err != nil {
		return nil, apierr.Validation(err)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, apierr.Validation(fmt.Errorf("first_name and last_name are required"))
	}
	if err := as.verifyCaptcha(ctx, input.CaptchaToken, input.RemoteIP); err != nil {
		return nil, err
	}

	tokenHash := hashToken(input.InvitationToken)
	now := time.Now().UTC()

	var result *AuthResult
	err := as.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		invitation, err := as.invitationRepo.GetByTokenHash(dbc, tokenHash)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if invitation == nil || invitation.UsedAt != nil || !invitation.ExpiresAt.After(now) {
			return apierr.Unauthorized(fmt.Errorf("invitation token invalid, used or expired"))
		}

		consumed, err := as.invitationRepo.Consume(dbc, tokenHash, now)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if !consumed {
			return apierr.Conflict(fmt.Errorf("invitation already consumed"))
		}

		exists, err := as.userRepo.EmailExists(dbc, invitation.Email)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if exists {
			return apierr.Conflict(fmt.Errorf("account for %s already exists", invitation.Email))
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), as.bcryptCost)
		if err != nil {
			return apierr.Unexpected(err)
		}

		user := &types.User{
			ID:        uuid.New(),
			Email:     invitation.Email,
			Password:  string(passwordHash),
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Role:      types.RolePatient,
			Status:    types.UserStatusActive,
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return apierr.Unexpected(err)
		}

		// avatar is cosmetic: a storage hiccup must not block signup
		if err := as.avatarService.CreateAndUploadUserAvatar(dbc, user); err != nil {
			as.log.Warn("Signup avatar generation failed (ignored)", "user_id", user.ID, "error", err)
		}

		session, rawToken, err := as.issueSession(dbc, user.ID, now)
		if err != nil {
			return err
		}

		result = &AuthResult{User: user, SessionToken: rawToken, ExpiresAt: session.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (as *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || input.Password == "" {
		// the login form reports field-level problems as 422
		return nil, apierr.New(http.StatusUnprocessableEntity, "validation_error", fmt.Errorf("email and password are required"))
	}

	if err := as.verifyCaptcha(ctx, input.CaptchaToken, input.RemoteIP); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dbc := dbctx.New(ctx)

	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if user == nil || user.Status == types.UserStatusDisabled {
		as.audit.Emit(AuditEntry{Action: AuditActionLoginFailed, Details: map[string]any{"email": email}})
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		as.audit.Emit(AuditEntry{UserID: &user.ID, Action: AuditActionLoginFailed})
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	session, rawToken, err := as.issueSession(dbc, user.ID, now)
	if err != nil {
		return nil, err
	}

	as.audit.Emit(AuditEntry{UserID: &user.ID, Action: AuditActionLogin})
	return &AuthResult{User: user, SessionToken: rawToken, ExpiresAt: session.ExpiresAt}, nil
}

func (as *authService) Logout(ctx context.Context, sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	if err := as.sessionRepo.DeleteByTokenHash(dbctx.New(ctx), hashToken(sessionToken)); err != nil {
		// logout must succeed from the client's point of view either way
		as.log.Warn("Session delete on logout failed (ignored)", "error", err)
	}
	return nil
}

func (as *authService) ValidateSession(ctx context.Context, sessionToken string) (*types.Session, *types.User, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("missing session"))
	}
	dbc := dbctx.New(ctx)

	session, err := as.sessionRepo.GetByTokenHash(dbc, hashToken(sessionToken))
	if err != nil {
		return nil, nil, apierr.Unexpected(err)
	}
	if session == nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("session not found"))
	}
	if !session.ExpiresAt.After(time.Now().UTC()) {
		_ = as.sessionRepo.DeleteByTokenHash(dbc, session.TokenHash)
		return nil, nil, apierr.Unauthorized(fmt.Errorf("session expired"))
	}

	user, err := as.userRepo.GetByID(dbc, session.UserID)
	if err != nil {
		return nil, nil, apierr.Unexpected(err)
	}
	if user == nil || user.Status == types.UserStatusDisabled {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("account unavailable"))
	}
	return session, user, nil
}

// RequestPasswordReset always reports success so the endpoint cannot be
// used to probe which addresses hold accounts.
func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return apierr.Validation(fmt.Errorf("email is required"))
	}

	dbc := dbctx.New(ctx)
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return apierr.Unexpected(err)
	}
	if user == nil {
		return nil
	}

	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return apierr.Unexpected(err)
	}
	reset := &types.PasswordReset{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().UTC().Add(as.resetTTL),
	}
	if _, err := as.passwordResetRepo.Create(dbc, []*types.PasswordReset{reset}); err != nil {
		return apierr.Unexpected(err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", as.appBaseURL, rawToken)
	_, err = as.mailer.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: user.Email, Name: user.FirstName + " " + user.LastName}},
		Subject: "Resetowanie hasła",
		Text:    "Aby ustawić nowe hasło, otwórz link: " + link,
		HTML:    fmt.Sprintf(`<p>Aby ustawić nowe hasło, <a href="%s">kliknij tutaj</a>. Link wygasa za %d minut.</p>`, link, int(as.resetTTL/time.Minute)),
	})
	if err != nil {
		return apierr.External(fmt.Errorf("send reset email: %w", err))
	}
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return apierr.Validation(err)
	}
	tokenHash := hashToken(token)
	now := time.Now().UTC()

	return as.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		reset, err := as.passwordResetRepo.GetByTokenHash(dbc, tokenHash)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if reset == nil || reset.UsedAt != nil || !reset.ExpiresAt.After(now) {
			return apierr.Unauthorized(fmt.Errorf("reset token invalid, used or expired"))
		}

		consumed, err := as.passwordResetRepo.Consume(dbc, tokenHash, now)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if !consumed {
			return apierr.Conflict(fmt.Errorf("reset token already consumed"))
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), as.bcryptCost)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if err := as.userRepo.UpdatePassword(dbc, reset.UserID, string(passwordHash)); err != nil {
			return apierr.Unexpected(err)
		}

		// changing the password logs the account out everywhere
		if err := as.sessionRepo.DeleteByUserID(dbc, reset.UserID); err != nil {
			return apierr.Unexpected(err)
		}
		return nil
	})
}

func (as *authService) issueSession(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*types.Session, string, error) {
	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return nil, "", apierr.Unexpected(err)
	}
	session := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(as.sessionTTL),
	}
	if _, err := as.sessionRepo.Create(dbc, []*types.Session{session}); err != nil {
		return nil, "", apierr.Unexpected(err)
	}
	return session, rawToken, nil
}

func newOpaqueToken() (raw, hash string, err error) {
	buf := make([]byte, sessionTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func validatePassword(p string) error {
	if len(p) < passwordMinLen {
		return fmt.Errorf("password must be at least %d characters", passwordMinLen)
	}
	return nil
}
