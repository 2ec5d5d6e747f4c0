package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, isRead *bool, page pagination.Params) ([]models.ContactMessage, int64, error)
	MarkRead(ctx context.Context, id string) (*models.ContactMessage, error)
}

type GORMContactRepository struct {
	db *gorm.DB
}

func NewGORMContactRepository(db *gorm.DB) *GORMContactRepository {
	return &GORMContactRepository{db: db}
}

func (r *GORMContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return translate(err, "create contact message")
	}
	return nil
}

func (r *GORMContactRepository) List(ctx context.Context, isRead *bool, page pagination.Params) ([]models.ContactMessage, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ContactMessage{})
	if isRead != nil {
		q = q.Where("is_read = ?", *isRead)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}
	var msgs []models.ContactMessage
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&msgs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return msgs, total, nil
}

func (r *GORMContactRepository) MarkRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ?", id).Error; err != nil {
			return translate(err, "get contact message %s", id)
		}
		msg.IsRead = true
		return tx.Model(&msg).Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
