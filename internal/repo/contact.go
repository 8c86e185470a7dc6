package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stsapko/contacts-api/internal/models"
)

// ErrNotFound covers both a missing id and an id owned by another user;
// callers cannot tell the two apart.
var ErrNotFound = errors.New("contact not found")

type ContactRepo struct {
	DB *gorm.DB
}

func NewContactRepo(db *gorm.DB) *ContactRepo {
	return &ContactRepo{DB: db}
}

// ContactUpdate carries the fields present in a partial update. A nil
// field is left untouched.
type ContactUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	BDay      *time.Time
	Note      *string
}

func (r *ContactRepo) List(ctx context.Context, ownerID uint, limit, offset int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *ContactRepo) Get(ctx context.Context, ownerID, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepo) Create(ctx context.Context, contact *models.Contact) error {
	return r.DB.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepo) Update(ctx context.Context, ownerID, id uint, upd ContactUpdate) (*models.Contact, error) {
	contact, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	vals := map[string]any{}
	if upd.FirstName != nil {
		vals["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		vals["last_name"] = *upd.LastName
	}
	if upd.Email != nil {
		vals["email"] = *upd.Email
	}
	if upd.Phone != nil {
		vals["phone"] = *upd.Phone
	}
	if upd.BDay != nil {
		vals["b_day"] = *upd.BDay
	}
	if upd.Note != nil {
		vals["note"] = *upd.Note
	}
	if len(vals) == 0 {
		return contact, nil
	}

	if err := r.DB.WithContext(ctx).Model(contact).Updates(vals).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx, ownerID, id)
}

// Delete removes the contact and returns it so the caller can report the
// name at time of deletion.
func (r *ContactRepo) Delete(ctx context.Context, ownerID, id uint) (*models.Contact, error) {
	contact, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Delete(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// Search does a case-insensitive substring match over first name, last
// name and email. An empty query matches every contact of the owner.
func (r *ContactRepo) Search(ctx context.Context, ownerID uint, query string, limit, offset int) ([]models.Contact, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var contacts []models.Contact
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)",
			ownerID, pattern, pattern, pattern).
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpcomingBirthdays projects each stored birth date onto the current year
// and keeps contacts whose projected date falls within the next seven
// days, today and day seven included. time.Date normalizes Feb 29 to
// Mar 1 in non-leap years.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, ownerID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.DB.WithContext(ctx).Where("user_id = ?", ownerID).Find(&contacts).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 7)

	upcoming := make([]models.Contact, 0)
	for _, contact := range contacts {
		projected := time.Date(today.Year(), contact.BDay.Month(), contact.BDay.Day(), 0, 0, 0, 0, time.UTC)
		if !projected.Before(today) && !projected.After(end) {
			upcoming = append(upcoming, contact)
		}
	}
	return upcoming, nil
}
