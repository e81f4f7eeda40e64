package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type CourseService struct {
	c *client.Client
}

// CourseQuery filters the course catalogue. Zero fields are omitted.
type CourseQuery struct {
	Search   string
	Category string
	Level    string
	Page     int
	Limit    int
}

func (q CourseQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Level != "" {
		v.Set("level", q.Level)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (s *CourseService) List(ctx context.Context, q CourseQuery) ([]Course, error) {
	objs, err := getObjects(ctx, s.c, "/courses"+q.encode())
	if err != nil {
		return nil, err
	}
	courses := make([]Course, 0, len(objs))
	for _, o := range objs {
		courses = append(courses, NormalizeCourse(o))
	}
	return courses, nil
}

// Get fetches the full course record.
func (s *CourseService) Get(ctx context.Context, id int64) (Course, error) {
	m, err := getObject(ctx, s.c, fmt.Sprintf("/courses/%d", id))
	if err != nil {
		return Course{}, err
	}
	return NormalizeCourse(m), nil
}
