// Package service wraps the LMS backend's REST resources. Each service
// translates domain calls into HTTP requests through a shared client and
// normalizes responses into the canonical types in this package.
package service

import (
	"context"
	"encoding/json"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

// Services bundles every resource wrapper over one client.
type Services struct {
	Auth          *AuthService
	Courses       *CourseService
	Enrollments   *EnrollmentService
	Assignments   *AssignmentService
	Notifications *NotificationService
	LearningPaths *LearningPathService
}

func New(c *client.Client) *Services {
	return &Services{
		Auth:          &AuthService{c: c},
		Courses:       &CourseService{c: c},
		Enrollments:   &EnrollmentService{c: c},
		Assignments:   &AssignmentService{c: c},
		Notifications: &NotificationService{c: c},
		LearningPaths: &LearningPathService{c: c},
	}
}

func getObject(ctx context.Context, c *client.Client, path string) (object, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeObject(raw)
}

func getObjects(ctx context.Context, c *client.Client, path string) ([]object, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeObjects(raw)
}

func postObject(ctx context.Context, c *client.Client, path string, body any) (object, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, path, body, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return object{}, nil
	}
	return decodeObject(raw)
}
