package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/service"
	"github.com/influencelytic/marketplace/internal/transport"
)

type NotificationService interface {
	List(ctx context.Context, actor service.Actor, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, actor service.Actor, id string) error
	MarkAllRead(ctx context.Context, actor service.Actor) error
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/notifications", h.ListNotifications)
	v1.Post("/notifications/:id/read", h.MarkRead)
	v1.Post("/notifications/read-all", h.MarkAllRead)

	return nil
}

type notificationResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := h.service.List(
		c.UserContext(), transport.ActorFromCtx(c),
		c.QueryBool("unread", false),
		c.QueryInt("limit", 0),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return err
	}

	data := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		data = append(data, notificationResponse{
			ID:        n.ID,
			Type:      n.Type.String(),
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(c.UserContext(), transport.ActorFromCtx(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.service.MarkAllRead(c.UserContext(), transport.ActorFromCtx(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
