package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/weight"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
)

const measuredOnLayout = "2006-01-02"

// weight bounds in grams; anything outside is a typo, not a patient
const (
	weightMinGrams = 20_000
	weightMaxGrams = 400_000
)

type CreateWeightEntryInput struct {
	MeasuredOn  string
	WeightGrams int
	Note        string
}

type UpdateWeightEntryInput struct {
	WeightGrams *int
	Note        *string
}

type WeightService interface {
	Create(dbc dbctx.Context, userID uuid.UUID, input CreateWeightEntryInput) (*types.WeightEntry, error)
	List(dbc dbctx.Context, userID uuid.UUID) ([]*types.WeightEntry, error)
	Update(dbc dbctx.Context, userID, entryID uuid.UUID, input UpdateWeightEntryInput, now time.Time) (*types.WeightEntry, error)
	Delete(dbc dbctx.Context, userID, entryID uuid.UUID, now time.Time) error
	EditableAt(measuredOn string, now time.Time) bool
}

type weightService struct {
	db        *gorm.DB
	log       *logger.Logger
	entryRepo weight.EntryRepo
	editTZ    *time.Location
}

func NewWeightService(db *gorm.DB, log *logger.Logger, entryRepo weight.EntryRepo) (WeightService, error) {
	tzName := envutil.String("WEIGHT_EDIT_TZ", "Europe/Warsaw")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load WEIGHT_EDIT_TZ %q: %w", tzName, err)
	}
	return &weightService{
		db:        db,
		log:       log.With("service", "WeightService"),
		entryRepo: entryRepo,
		editTZ:    loc,
	}, nil
}

func (ws *weightService) Create(dbc dbctx.Context, userID uuid.UUID, input CreateWeightEntryInput) (*types.WeightEntry, error) {
	measuredOn, err := normalizeMeasuredOn(input.MeasuredOn)
	if err != nil {
		return nil, apierr.Validation(err)
	}
	if err := validateWeightGrams(input.WeightGrams); err != nil {
		return nil, apierr.Validation(err)
	}

	entry := &types.WeightEntry{
		ID:          uuid.New(),
		UserID:      userID,
		MeasuredOn:  measuredOn,
		WeightGrams: input.WeightGrams,
		Note:        input.Note,
	}
	created, err := ws.entryRepo.Create(dbc, []*types.WeightEntry{entry})
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	return created[0], nil
}

func (ws *weightService) List(dbc dbctx.Context, userID uuid.UUID) ([]*types.WeightEntry, error) {
	entries, err := ws.entryRepo.ListByUserID(dbc, userID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	return entries, nil
}

func (ws *weightService) Update(dbc dbctx.Context, userID, entryID uuid.UUID, input UpdateWeightEntryInput, now time.Time) (*types.WeightEntry, error) {
	entry, err := ws.ownedEditableEntry(dbc, userID, entryID, now)
	if err != nil {
		return nil, err
	}

	if input.WeightGrams != nil {
		if err := validateWeightGrams(*input.WeightGrams); err != nil {
			return nil, apierr.Validation(err)
		}
		entry.WeightGrams = *input.WeightGrams
	}
	if input.Note != nil {
		entry.Note = *input.Note
	}

	if err := ws.entryRepo.Update(dbc, entry); err != nil {
		return nil, apierr.Unexpected(err)
	}
	return entry, nil
}

func (ws *weightService) Delete(dbc dbctx.Context, userID, entryID uuid.UUID, now time.Time) error {
	if _, err := ws.ownedEditableEntry(dbc, userID, entryID, now); err != nil {
		return err
	}
	if err := ws.entryRepo.Delete(dbc, entryID); err != nil {
		return apierr.Unexpected(err)
	}
	return nil
}

// ownedEditableEntry loads the entry and enforces both ownership and the
// edit window. Someone else's entry reads as not found, never as forbidden,
// so ids cannot be probed.
func (ws *weightService) ownedEditableEntry(dbc dbctx.Context, userID, entryID uuid.UUID, now time.Time) (*types.WeightEntry, error) {
	entry, err := ws.entryRepo.GetByID(dbc, entryID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if entry == nil || entry.UserID != userID {
		return nil, apierr.NotFound(fmt.Errorf("weight entry %s not found", entryID))
	}
	if !ws.EditableAt(entry.MeasuredOn, now) {
		return nil, apierr.Forbidden("edit_window_closed", fmt.Errorf("weight entry %s is past its edit window", entryID))
	}
	return entry, nil
}

// EditableAt reports whether an entry measured on the given civil date can
// still be changed. The window closes at the end of the day after the
// measurement, in the clinic's timezone: an entry for day D is editable
// through D+1 23:59:59 and frozen from D+2 00:00:00.
func (ws *weightService) EditableAt(measuredOn string, now time.Time) bool {
	day, err := time.ParseInLocation(measuredOnLayout, measuredOn, ws.editTZ)
	if err != nil {
		return false
	}
	cutoff := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, ws.editTZ).AddDate(0, 0, 2)
	return now.In(ws.editTZ).Before(cutoff)
}

func normalizeMeasuredOn(raw string) (string, error) {
	t, err := time.Parse(measuredOnLayout, raw)
	if err != nil {
		return "", fmt.Errorf("measured_on must be a YYYY-MM-DD date: %w", err)
	}
	return t.Format(measuredOnLayout), nil
}

func validateWeightGrams(g int) error {
	if g < weightMinGrams || g > weightMaxGrams {
		return fmt.Errorf("weight_grams must be between %d and %d", weightMinGrams, weightMaxGrams)
	}
	return nil
}
