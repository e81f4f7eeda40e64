package service

import (
	"context"
	"fmt"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type AssignmentService struct {
	c *client.Client
}

func (s *AssignmentService) ByCourse(ctx context.Context, courseID int64) ([]Assignment, error) {
	objs, err := getObjects(ctx, s.c, fmt.Sprintf("/assignments/course/%d", courseID))
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(objs))
	for _, o := range objs {
		a := NormalizeAssignment(o)
		if a.CourseID == 0 {
			a.CourseID = courseID
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AssignmentService) Submit(ctx context.Context, assignmentID int64, in SubmissionInput) (Submission, error) {
	m, err := postObject(ctx, s.c, fmt.Sprintf("/assignments/%d/submit", assignmentID), in)
	if err != nil {
		return Submission{}, err
	}
	sub := NormalizeSubmission(m)
	if sub.AssignmentID == 0 {
		sub.AssignmentID = assignmentID
	}
	return sub, nil
}
