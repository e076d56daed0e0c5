package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authrepos "github.com/dietoteka/dietoteka-backend/internal/data/repos/auth"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
	"github.com/dietoteka/dietoteka-backend/internal/platform/sendgrid"
)

type InvitationService interface {
	// Invite issues a single-use signup token for email and mails the link.
	// Only dietitians reach this through the role gate.
	Invite(ctx context.Context, invitedByID uuid.UUID, email string) (*types.Invitation, error)
}

type invitationService struct {
	db             *gorm.DB
	log            *logger.Logger
	invitationRepo authrepos.InvitationRepo
	userRepo       authrepos.UserRepo
	mailer         sendgrid.Client

	ttl        time.Duration
	appBaseURL string
}

func NewInvitationService(
	db *gorm.DB,
	log *logger.Logger,
	invitationRepo authrepos.InvitationRepo,
	userRepo authrepos.UserRepo,
	mailer sendgrid.Client,
) InvitationService {
	return &invitationService{
		db:             db,
		log:            log.With("service", "InvitationService"),
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		ttl:            time.Duration(envutil.Int("INVITATION_TTL_HOURS", 72)) * time.Hour,
		appBaseURL:     strings.TrimRight(envutil.String("APP_BASE_URL", "https://app.dietoteka.pl"), "/"),
	}
}

func (is *invitationService) Invite(ctx context.Context, invitedByID uuid.UUID, email string) (*types.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apierr.Validation(fmt.Errorf("email is required"))
	}

	dbc := dbctx.New(ctx)
	exists, err := is.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if exists {
		return nil, apierr.Conflict(fmt.Errorf("account for %s already exists", email))
	}

	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return nil, apierr.Unexpected(err)
	}

	invitation := &types.Invitation{
		ID:          uuid.New(),
		Email:       email,
		TokenHash:   tokenHash,
		InvitedByID: invitedByID,
		ExpiresAt:   time.Now().UTC().Add(is.ttl),
	}
	if _, err := is.invitationRepo.Create(dbc, []*types.Invitation{invitation}); err != nil {
		return nil, apierr.Unexpected(err)
	}

	link := fmt.Sprintf("%s/signup?token=%s", is.appBaseURL, rawToken)
	_, err = is.mailer.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: email}},
		Subject: "Zaproszenie do Dietoteki",
		Text:    "Załóż konto pod adresem: " + link,
		HTML:    fmt.Sprintf(`<p>Twoja dietetyczka zaprasza Cię do Dietoteki. <a href="%s">Załóż konto</a> — link wygasa za %d godzin.</p>`, link, int(is.ttl/time.Hour)),
	})
	if err != nil {
		return nil, apierr.External(fmt.Errorf("send invitation email: %w", err))
	}

	is.log.Info("Invitation issued", "email", email, "invited_by", invitedByID)
	return invitation, nil
}
