package services

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const (
	reviewPageDefault = 20
	reviewPageMax     = 50

	reviewRatingMin = 1
	reviewRatingMax = 5
	reviewBodyMax   = 4000
)

type UpsertReviewInput struct {
	Rating int
	Body   string
}

// ReviewPage carries one page of reviews plus the cursor for the next
// one. A nil NextCursor means the listing is exhausted; it renders as
// an explicit null so clients can stop on it.
type ReviewPage struct {
	Items      []*types.PzkReview `json:"items"`
	NextCursor *string            `json:"nextCursor"`
}

type ReviewService interface {
	Upsert(dbc dbctx.Context, userID uuid.UUID, input UpsertReviewInput, now time.Time) (*types.PzkReview, error)
	GetOwn(dbc dbctx.Context, userID uuid.UUID) (*types.PzkReview, error)
	List(dbc dbctx.Context, userID uuid.UUID, sort, cursor string, limit int, now time.Time) (*ReviewPage, error)
}

type reviewService struct {
	db            *gorm.DB
	log           *logger.Logger
	reviewRepo    pzk.ReviewRepo
	accessService AccessService
}

func NewReviewService(db *gorm.DB, log *logger.Logger, reviewRepo pzk.ReviewRepo, accessService AccessService) ReviewService {
	return &reviewService{
		db:            db,
		log:           log.With("service", "ReviewService"),
		reviewRepo:    reviewRepo,
		accessService: accessService,
	}
}

// The review surface belongs to paying patients: both reading and writing
// require at least one active module grant.
func (rs *reviewService) requireAnyAccess(dbc dbctx.Context, userID uuid.UUID, now time.Time) error {
	access, err := rs.accessService.ListActive(dbc, userID, now)
	if err != nil {
		return err
	}
	if len(access.Modules) == 0 {
		return apierr.Forbidden(LockReasonNoAccess, fmt.Errorf("user %s has no active module access", userID))
	}
	return nil
}

func (rs *reviewService) Upsert(dbc dbctx.Context, userID uuid.UUID, input UpsertReviewInput, now time.Time) (*types.PzkReview, error) {
	if err := rs.requireAnyAccess(dbc, userID, now); err != nil {
		return nil, err
	}
	if input.Rating < reviewRatingMin || input.Rating > reviewRatingMax {
		return nil, apierr.Validation(fmt.Errorf("rating must be between %d and %d", reviewRatingMin, reviewRatingMax))
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apierr.Validation(fmt.Errorf("body is required"))
	}
	if len(body) > reviewBodyMax {
		return nil, apierr.Validation(fmt.Errorf("body exceeds %d characters", reviewBodyMax))
	}

	review := &types.PzkReview{
		ID:     uuid.New(),
		UserID: userID,
		Rating: input.Rating,
		Body:   body,
	}
	saved, err := rs.reviewRepo.Upsert(dbc, review)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	return saved, nil
}

func (rs *reviewService) GetOwn(dbc dbctx.Context, userID uuid.UUID) (*types.PzkReview, error) {
	review, err := rs.reviewRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if review == nil {
		return nil, apierr.NotFound(fmt.Errorf("no review for user %s", userID))
	}
	return review, nil
}

func (rs *reviewService) List(dbc dbctx.Context, userID uuid.UUID, sort, cursor string, limit int, now time.Time) (*ReviewPage, error) {
	if err := rs.requireAnyAccess(dbc, userID, now); err != nil {
		return nil, err
	}
	switch sort {
	case "", pzk.ReviewSortCreatedAtDesc:
		sort = pzk.ReviewSortCreatedAtDesc
	case pzk.ReviewSortUpdatedAtDesc:
	default:
		return nil, apierr.Validation(fmt.Errorf("unknown sort %q", sort))
	}
	if limit <= 0 {
		limit = reviewPageDefault
	}
	if limit > reviewPageMax {
		limit = reviewPageMax
	}

	after, err := decodeReviewCursor(sort, cursor)
	if err != nil {
		return nil, apierr.Validation(err)
	}

	reviews, err := rs.reviewRepo.ListPage(dbc, sort, after, limit)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}

	if reviews == nil {
		reviews = []*types.PzkReview{}
	}
	page := &ReviewPage{Items: reviews}
	if len(reviews) == limit {
		last := reviews[len(reviews)-1]
		at := last.CreatedAt
		if sort == pzk.ReviewSortUpdatedAtDesc {
			at = last.UpdatedAt
		}
		cur := encodeReviewCursor(sort, pzk.ReviewKey{At: at, ID: last.ID})
		page.NextCursor = &cur
	}
	return page, nil
}

// The cursor is opaque to clients: base64 over "sort|timestamp|id". Binding
// the sort into the cursor rejects a cursor replayed under a different order.
func encodeReviewCursor(sort string, key pzk.ReviewKey) string {
	raw := fmt.Sprintf("%s|%s|%s", sort, key.At.UTC().Format(time.RFC3339Nano), key.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeReviewCursor(sort, cursor string) (*pzk.ReviewKey, error) {
	if strings.TrimSpace(cursor) == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor")
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed cursor")
	}
	if parts[0] != sort {
		return nil, fmt.Errorf("cursor does not match sort %q", sort)
	}
	at, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed cursor")
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed cursor")
	}
	return &pzk.ReviewKey{At: at, ID: id}, nil
}
