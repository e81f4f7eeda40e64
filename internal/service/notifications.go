package service

import (
	"context"
	"fmt"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type NotificationService struct {
	c *client.Client
}

func (s *NotificationService) List(ctx context.Context) ([]Notification, error) {
	objs, err := getObjects(ctx, s.c, "/notifications")
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(objs))
	for _, o := range objs {
		out = append(out, NormalizeNotification(o))
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.c.Patch(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}
