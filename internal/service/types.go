package service

import (
	"encoding/json"
	"strings"
)

// Stage is one of the four ordered curriculum phases recommended courses are
// bucketed into.
type Stage string

const (
	StageFoundation     Stage = "FOUNDATION"
	StageIntermediate   Stage = "INTERMEDIATE"
	StageAdvanced       Stage = "ADVANCED"
	StageSpecialization Stage = "SPECIALIZATION"
)

// Stages lists every stage in display order.
var Stages = []Stage{StageFoundation, StageIntermediate, StageAdvanced, StageSpecialization}

// ParseStage maps a server stage label onto a Stage. Unknown labels return "".
func ParseStage(s string) Stage {
	st := Stage(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Stages {
		if st == known {
			return st
		}
	}
	return ""
}

// Course is a full or partial course projection. A zero ID marks a
// placeholder recommendation slot with no real course behind it.
type Course struct {
	ID            int64    `json:"id,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Rationale     string   `json:"rationale,omitempty"`
	MatchedTopics []string `json:"matchedTopics,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Instructor    string   `json:"instructor,omitempty"`
	Category      string   `json:"category,omitempty"`
	Level         string   `json:"level,omitempty"`
	ThumbnailURL  string   `json:"thumbnailUrl,omitempty"`
	Stage         Stage    `json:"stage,omitempty"`
}

// IsPlaceholder reports whether the entry has no backing course.
func (c Course) IsPlaceholder() bool { return c.ID <= 0 }

// MissingDetail reports whether any of the fields shown on a course card is
// absent, meaning a detail fetch could fill it in.
func (c Course) MissingDetail() bool {
	return c.Instructor == "" || c.Category == "" || c.Price == nil || c.Rating == nil || c.Description == ""
}

// FillMissing copies fields from detail only where c lacks them. Fields
// already present are never replaced.
func (c Course) FillMissing(detail Course) Course {
	if c.ID == 0 {
		c.ID = detail.ID
	}
	if c.Title == "" {
		c.Title = detail.Title
	}
	if c.Description == "" {
		c.Description = detail.Description
	}
	if c.Rationale == "" {
		c.Rationale = detail.Rationale
	}
	if len(c.MatchedTopics) == 0 && len(detail.MatchedTopics) > 0 {
		c.MatchedTopics = append([]string(nil), detail.MatchedTopics...)
	}
	if c.Price == nil && detail.Price != nil {
		p := *detail.Price
		c.Price = &p
	}
	if c.Rating == nil && detail.Rating != nil {
		r := *detail.Rating
		c.Rating = &r
	}
	if c.Instructor == "" {
		c.Instructor = detail.Instructor
	}
	if c.Category == "" {
		c.Category = detail.Category
	}
	if c.Level == "" {
		c.Level = detail.Level
	}
	if c.ThumbnailURL == "" {
		c.ThumbnailURL = detail.ThumbnailURL
	}
	if c.Stage == "" {
		c.Stage = detail.Stage
	}
	return c
}

// NormalizeCourse maps any known server variant of a course record onto
// Course. Recommendation entries of the form {course: {...}, note: "..."}
// are flattened, with the outer fields winning.
func NormalizeCourse(m object) Course {
	if inner := pickObject(m, "course"); inner != nil {
		outer := make(object, len(m))
		for k, v := range m {
			if k != "course" {
				outer[k] = v
			}
		}
		base := NormalizeCourse(inner)
		top := NormalizeCourse(outer)
		// An outer id belongs to the wrapping item, not the course.
		top.ID = pickID(outer, "course_id", "courseId")
		return top.FillMissing(base)
	}

	c := Course{
		ID:           pickID(m, "id", "course_id", "courseId"),
		Title:        pickString(m, "title", "name", "course_title", "courseTitle"),
		Description:  plainText(pickString(m, "description", "short_description", "shortDescription", "summary")),
		Rationale:    pickString(m, "rationale", "note", "reason", "why"),
		Price:        pickFloat(m, "price", "discount_price", "discountPrice"),
		Rating:       pickFloat(m, "rating", "average_rating", "averageRating", "avg_rating", "avgRating"),
		Level:        pickString(m, "level", "difficulty"),
		ThumbnailURL: pickString(m, "thumbnail_url", "thumbnailUrl", "thumbnail", "image_url", "imageUrl"),
		Stage:        ParseStage(pickString(m, "stage")),
	}
	if v, ok := pick(m, "matched_topics", "matchedTopics", "topics"); ok {
		c.MatchedTopics = stringList(v)
	}
	if v, ok := pick(m, "instructor", "teacher"); ok {
		c.Instructor = nameOf(v)
	}
	if c.Instructor == "" {
		c.Instructor = pickString(m, "instructor_name", "instructorName")
	}
	if v, ok := pick(m, "category"); ok {
		c.Category = nameOf(v)
	}
	if c.Category == "" {
		c.Category = pickString(m, "category_name", "categoryName")
	}
	return c
}

// UnmarshalJSON accepts every server variant NormalizeCourse understands.
func (c *Course) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*c = NormalizeCourse(m)
	return nil
}

// MarshalJSON keeps the canonical field names on the way out.
func (c Course) MarshalJSON() ([]byte, error) {
	type plain Course
	return json.Marshal(plain(c))
}

// User is the authenticated account. Role and Roles always agree: Role is
// the primary role and Roles contains at least that role when any is known.
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName,omitempty"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// NormalizeUser reads a user record and reconciles the singular and plural
// role representations.
func NormalizeUser(m object) User {
	u := User{
		ID:       pickString(m, "id", "user_id", "userId"),
		Email:    pickString(m, "email"),
		FullName: pickString(m, "full_name", "fullName", "name", "username"),
	}
	if u.FullName == "" {
		u.FullName = nameOf(m)
	}

	if v, ok := pick(m, "roles"); ok {
		if items, ok := v.([]any); ok {
			for _, it := range items {
				name := nameOf(it)
				if obj, ok := it.(map[string]any); ok && name == "" {
					name = nameOf(obj["role"])
				}
				if name != "" {
					u.Roles = append(u.Roles, name)
				}
			}
		} else {
			u.Roles = stringList(v)
		}
	}
	if v, ok := pick(m, "role"); ok {
		u.Role = nameOf(v)
	}

	if u.Role == "" && len(u.Roles) > 0 {
		u.Role = u.Roles[0]
	}
	if u.Role != "" && !containsFold(u.Roles, u.Role) {
		u.Roles = append([]string{u.Role}, u.Roles...)
	}
	return u
}

// HasRole reports whether the user holds role, case-insensitively.
func (u User) HasRole(role string) bool {
	return containsFold(u.Roles, role)
}

func (u *User) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*u = NormalizeUser(m)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(plain(u))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

type Enrollment struct {
	ID         int64   `json:"id"`
	CourseID   int64   `json:"courseId"`
	Course     *Course `json:"course,omitempty"`
	Status     string  `json:"status,omitempty"`
	Progress   float64 `json:"progress"`
	EnrolledAt string  `json:"enrolledAt,omitempty"`
}

func NormalizeEnrollment(m object) Enrollment {
	e := Enrollment{
		ID:         pickID(m, "id", "enrollment_id", "enrollmentId"),
		CourseID:   pickID(m, "course_id", "courseId"),
		Status:     pickString(m, "status"),
		EnrolledAt: pickString(m, "enrolled_at", "enrolledAt", "created_at", "createdAt"),
	}
	if p := pickFloat(m, "progress", "progress_percentage", "progressPercentage"); p != nil {
		e.Progress = *p
	}
	if obj := pickObject(m, "course"); obj != nil {
		c := NormalizeCourse(obj)
		e.Course = &c
		if e.CourseID == 0 {
			e.CourseID = c.ID
		}
	}
	return e
}

type Assignment struct {
	ID          int64    `json:"id"`
	CourseID    int64    `json:"courseId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	MaxScore    *float64 `json:"maxScore,omitempty"`
}

func NormalizeAssignment(m object) Assignment {
	a := Assignment{
		ID:          pickID(m, "id", "assignment_id", "assignmentId"),
		CourseID:    pickID(m, "course_id", "courseId"),
		Title:       pickString(m, "title", "name"),
		Description: plainText(pickString(m, "description", "instructions")),
		DueDate:     pickString(m, "due_date", "dueDate", "deadline"),
		MaxScore:    pickFloat(m, "max_score", "maxScore", "max_points", "maxPoints"),
	}
	if a.CourseID == 0 {
		if obj := pickObject(m, "course"); obj != nil {
			a.CourseID = pickID(obj, "id")
		}
	}
	return a
}

// SubmissionInput is the body of an assignment submission.
type SubmissionInput struct {
	Content string `json:"content,omitempty" validate:"required_without=FileURL"`
	FileURL string `json:"fileUrl,omitempty" validate:"omitempty,url"`
}

type Submission struct {
	ID           int64    `json:"id"`
	AssignmentID int64    `json:"assignmentId"`
	Content      string   `json:"content,omitempty"`
	FileURL      string   `json:"fileUrl,omitempty"`
	Status       string   `json:"status,omitempty"`
	Grade        *float64 `json:"grade,omitempty"`
	Feedback     string   `json:"feedback,omitempty"`
	SubmittedAt  string   `json:"submittedAt,omitempty"`
}

func NormalizeSubmission(m object) Submission {
	return Submission{
		ID:           pickID(m, "id", "submission_id", "submissionId"),
		AssignmentID: pickID(m, "assignment_id", "assignmentId"),
		Content:      pickString(m, "content", "text"),
		FileURL:      pickString(m, "file_url", "fileUrl"),
		Status:       pickString(m, "status"),
		Grade:        pickFloat(m, "grade", "score"),
		Feedback:     pickString(m, "feedback"),
		SubmittedAt:  pickString(m, "submitted_at", "submittedAt", "created_at", "createdAt"),
	}
}

type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func NormalizeNotification(m object) Notification {
	return Notification{
		ID:        pickID(m, "id"),
		Title:     pickString(m, "title", "subject"),
		Message:   pickString(m, "message", "content", "body"),
		Type:      pickString(m, "type"),
		IsRead:    pickBool(m, "is_read", "isRead", "read"),
		CreatedAt: pickString(m, "created_at", "createdAt"),
	}
}

// Recommendation is the server's staged course plan for a learning goal.
// HasStages distinguishes the staged shape from the legacy flat Courses list.
type Recommendation struct {
	ID             string             `json:"id"`
	Concepts       []string           `json:"concepts,omitempty"`
	Careers        []string           `json:"careers,omitempty"`
	CoursesByStage map[Stage][]Course `json:"coursesByStage,omitempty"`
	Courses        []Course           `json:"courses,omitempty"`
	HasStages      bool               `json:"hasStages"`
}

func NormalizeRecommendation(m object) Recommendation {
	r := Recommendation{
		ID: pickString(m, "id", "recommendation_id", "recommendationId"),
	}
	if v, ok := pick(m, "concepts"); ok {
		r.Concepts = stringList(v)
	}
	if v, ok := pick(m, "careers", "career_paths", "careerPaths"); ok {
		r.Careers = stringList(v)
	}

	if staged := pickObject(m, "courses_by_stage", "coursesByStage"); staged != nil {
		r.HasStages = true
		r.CoursesByStage = make(map[Stage][]Course, len(Stages))
		for key, v := range staged {
			stage := ParseStage(key)
			if stage == "" {
				continue
			}
			for _, c := range normalizeCourseList(v) {
				if c.Stage == "" {
					c.Stage = stage
				}
				r.CoursesByStage[stage] = append(r.CoursesByStage[stage], c)
			}
		}
		return r
	}

	if v, ok := pick(m, "courses", "recommended_courses", "recommendedCourses"); ok {
		r.Courses = normalizeCourseList(v)
	}
	return r
}

func normalizeCourseList(v any) []Course {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Course, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			// A bare id is a reference with nothing else known.
			out = append(out, Course{ID: toID(it)})
			continue
		}
		out = append(out, NormalizeCourse(obj))
	}
	return out
}

// PathItem is one course inside a learning path saved on the server.
type PathItem struct {
	ID       int64   `json:"id"`
	CourseID int64   `json:"courseId"`
	Position int     `json:"position"`
	Stage    Stage   `json:"stage,omitempty"`
	Note     string  `json:"note,omitempty"`
	Course   *Course `json:"course,omitempty"`
}

// LearningPath is a named snapshot of selected courses tied to a
// recommendation.
type LearningPath struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Items     []PathItem     `json:"items"`
}

func NormalizeLearningPath(m object) LearningPath {
	p := LearningPath{
		ID:        pickID(m, "id"),
		Name:      pickString(m, "name", "title"),
		Metadata:  pickObject(m, "metadata", "meta"),
		CreatedAt: pickString(m, "created_at", "createdAt"),
		UpdatedAt: pickString(m, "updated_at", "updatedAt"),
	}
	v, _ := pick(m, "items", "path_items", "pathItems")
	items, _ := v.([]any)
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		item := PathItem{
			ID:       pickID(obj, "id"),
			CourseID: pickID(obj, "course_id", "courseId"),
			Stage:    ParseStage(pickString(obj, "stage")),
			Note:     pickString(obj, "note", "rationale"),
			Position: i,
		}
		if pos := pickFloat(obj, "position", "order", "order_index", "orderIndex"); pos != nil {
			item.Position = int(*pos)
		}
		if c := pickObject(obj, "course"); c != nil {
			course := NormalizeCourse(c)
			item.Course = &course
			if item.CourseID == 0 {
				item.CourseID = course.ID
			}
		}
		p.Items = append(p.Items, item)
	}
	return p
}
