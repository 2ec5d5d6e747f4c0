package services

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/pagination"
)

// DefaultContactPageSize is the admin inbox page size.
const DefaultContactPageSize = 20

type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type ContactService struct {
	repo   repositories.ContactRepository
	events EventPublisher
	log    *logger.Logger
}

func NewContactService(repo repositories.ContactRepository, events EventPublisher, log *logger.Logger) *ContactService {
	if log == nil {
		log = logger.Nop()
	}
	return &ContactService{repo: repo, events: events, log: log}
}

// Submit stores the message and notifies subscribers.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save message")
	}
	publish(ctx, s.events, s.log, EventContactSubmitted, ContactEvent{
		ID:      msg.ID,
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: msg.Subject,
		Message: msg.Message,
	})
	return msg, nil
}

func (s *ContactService) List(ctx context.Context, isRead *bool, page pagination.Params) ([]models.ContactMessage, pagination.Meta, error) {
	page = page.Normalize(DefaultContactPageSize)
	msgs, total, err := s.repo.List(ctx, isRead, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list messages")
	}
	return msgs, pagination.NewMeta(page, total), nil
}

func (s *ContactService) MarkRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Message not found", "failed to update message")
	}
	return msg, nil
}
