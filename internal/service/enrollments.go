package service

import (
	"context"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type EnrollmentService struct {
	c *client.Client
}

func (s *EnrollmentService) Enroll(ctx context.Context, courseID int64) (Enrollment, error) {
	m, err := postObject(ctx, s.c, "/enrollments", map[string]int64{"courseId": courseID})
	if err != nil {
		return Enrollment{}, err
	}
	e := NormalizeEnrollment(m)
	if e.CourseID == 0 {
		e.CourseID = courseID
	}
	return e, nil
}

// Mine lists the current user's enrollments.
func (s *EnrollmentService) Mine(ctx context.Context) ([]Enrollment, error) {
	objs, err := getObjects(ctx, s.c, "/enrollments/my-courses")
	if err != nil {
		return nil, err
	}
	out := make([]Enrollment, 0, len(objs))
	for _, o := range objs {
		out = append(out, NormalizeEnrollment(o))
	}
	return out, nil
}
