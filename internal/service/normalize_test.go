package service

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustObject(t *testing.T, s string) object {
	t.Helper()
	m, err := decodeObject(json.RawMessage(s))
	if err != nil {
		t.Fatalf("decodeObject(%s): %v", s, err)
	}
	return m
}

func TestNormalizeCourseVariants(t *testing.T) {
	snake := NormalizeCourse(mustObject(t, `{
		"id": "12",
		"title": "React",
		"description": "<p>Build <b>UIs</b></p><script>x()</script>",
		"price": "19.5",
		"average_rating": 4.5,
		"instructor": {"full_name": "Lan Tran"},
		"category": {"name": "Frontend"},
		"thumbnail_url": "http://img/1.png"
	}`))
	camel := NormalizeCourse(mustObject(t, `{"data": {
		"courseId": 12,
		"name": "React",
		"shortDescription": "Build UIs",
		"price": 19.5,
		"averageRating": "4.5",
		"instructorName": "Lan Tran",
		"categoryName": "Frontend",
		"thumbnailUrl": "http://img/1.png"
	}}`))

	if !reflect.DeepEqual(snake, camel) {
		t.Errorf("variants differ:\n snake %+v\n camel %+v", snake, camel)
	}
	if snake.ID != 12 || snake.Description != "Build UIs" {
		t.Errorf("course = %+v", snake)
	}
	if snake.Price == nil || *snake.Price != 19.5 {
		t.Errorf("price = %v", snake.Price)
	}
	if snake.MissingDetail() {
		t.Error("full record reported as missing detail")
	}
}

func TestNormalizeCourseNested(t *testing.T) {
	c := NormalizeCourse(mustObject(t, `{
		"id": 900,
		"course_id": 5,
		"note": "Start here",
		"course": {"id": 5, "title": "HTML Basics", "instructor": "Minh"}
	}`))
	if c.ID != 5 {
		t.Errorf("ID = %d, want 5 (wrapper id must not leak)", c.ID)
	}
	if c.Title != "HTML Basics" || c.Rationale != "Start here" || c.Instructor != "Minh" {
		t.Errorf("course = %+v", c)
	}
}

func TestNormalizeCoursePlaceholder(t *testing.T) {
	for _, s := range []string{`{"title":"TBD"}`, `{"id":null,"title":"x"}`, `{"id":"abc"}`, `{"id":1.5}`, `{"id":-3}`} {
		if c := NormalizeCourse(mustObject(t, s)); !c.IsPlaceholder() {
			t.Errorf("%s: IsPlaceholder = false, id %d", s, c.ID)
		}
	}
}

func TestFillMissingKeepsPresentFields(t *testing.T) {
	price := 10.0
	newPrice := 99.0
	rating := 4.0
	cached := Course{ID: 1, Title: "Go", Price: &price}
	detail := Course{ID: 1, Title: "Go (2nd ed.)", Price: &newPrice, Rating: &rating, Instructor: "An"}

	got := cached.FillMissing(detail)
	if got.Title != "Go" || *got.Price != 10 {
		t.Errorf("present fields overwritten: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 4 || got.Instructor != "An" {
		t.Errorf("missing fields not filled: %+v", got)
	}
	*detail.Rating = 1
	if *got.Rating != 4 {
		t.Error("filled pointer aliases detail")
	}
}

func TestNormalizeUserRoles(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantRole  string
		wantRoles []string
	}{
		{"singular only", `{"id":7,"email":"a@b.c","role":"STUDENT"}`, "STUDENT", []string{"STUDENT"}},
		{"plural only", `{"id":7,"roles":["TEACHER","STUDENT"]}`, "TEACHER", []string{"TEACHER", "STUDENT"}},
		{"role objects", `{"id":7,"roles":[{"role":{"name":"ADMIN"}}]}`, "ADMIN", []string{"ADMIN"}},
		{"singular missing from list", `{"id":7,"role":"ADMIN","roles":["STUDENT"]}`, "ADMIN", []string{"ADMIN", "STUDENT"}},
		{"none", `{"id":7}`, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NormalizeUser(mustObject(t, tt.in))
			if u.ID != "7" {
				t.Errorf("ID = %q", u.ID)
			}
			if u.Role != tt.wantRole || !reflect.DeepEqual(u.Roles, tt.wantRoles) {
				t.Errorf("role=%q roles=%v, want %q %v", u.Role, u.Roles, tt.wantRole, tt.wantRoles)
			}
		})
	}
}

func TestUserJSONRoundTripKeepsRoles(t *testing.T) {
	u := User{ID: "7", Email: "a@b.c", FullName: "An", Role: "STUDENT", Roles: []string{"STUDENT"}}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	var back User
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(u, back) {
		t.Errorf("round trip = %+v, want %+v", back, u)
	}
}

func TestNormalizeRecommendationStaged(t *testing.T) {
	r := NormalizeRecommendation(mustObject(t, `{
		"id": 31,
		"concepts": ["HTML", {"name": "CSS"}],
		"courses_by_stage": {
			"FOUNDATION": [{"id": 1, "title": "HTML Basics"}, 4],
			"advanced": [],
			"BONUS": [{"id": 9}]
		}
	}`))
	if r.ID != "31" || !r.HasStages {
		t.Fatalf("recommendation = %+v", r)
	}
	if !reflect.DeepEqual(r.Concepts, []string{"HTML", "CSS"}) {
		t.Errorf("concepts = %v", r.Concepts)
	}
	f := r.CoursesByStage[StageFoundation]
	if len(f) != 2 || f[0].Stage != StageFoundation || f[1].ID != 4 {
		t.Errorf("foundation = %+v", f)
	}
	if _, ok := r.CoursesByStage[Stage("BONUS")]; ok {
		t.Error("unknown stage kept")
	}
}

func TestNormalizeRecommendationFlat(t *testing.T) {
	r := NormalizeRecommendation(mustObject(t, `{"id":"r1","courses":[{"courseId":3,"stage":"ADVANCED"},{"title":"slot"}]}`))
	if r.HasStages || len(r.Courses) != 2 {
		t.Fatalf("recommendation = %+v", r)
	}
	if r.Courses[0].ID != 3 || r.Courses[0].Stage != StageAdvanced || !r.Courses[1].IsPlaceholder() {
		t.Errorf("courses = %+v", r.Courses)
	}
}

func TestNormalizeLearningPath(t *testing.T) {
	p := NormalizeLearningPath(mustObject(t, `{
		"id": 4, "name": "Frontend", "metadata": {"goal": "web"}, "createdAt": "2026-01-01",
		"items": [{"id": 1, "course": {"id": 8, "title": "CSS"}, "order_index": 2, "stage": "foundation"}, "junk"]
	}`))
	if p.ID != 4 || p.Name != "Frontend" || p.Metadata["goal"] != "web" {
		t.Fatalf("path = %+v", p)
	}
	if len(p.Items) != 1 {
		t.Fatalf("items = %+v", p.Items)
	}
	it := p.Items[0]
	if it.CourseID != 8 || it.Position != 2 || it.Stage != StageFoundation || it.Course.Title != "CSS" {
		t.Errorf("item = %+v", it)
	}
}

func TestDecodeObjectsEnvelopes(t *testing.T) {
	for _, s := range []string{
		`[{"id":1},{"id":2}]`,
		`{"data":[{"id":1},{"id":2}]}`,
		`{"items":[{"id":1},{"id":2}],"total":2}`,
		`{"data":{"courses":[{"id":1},{"id":2}]}}`,
	} {
		objs, err := decodeObjects(json.RawMessage(s))
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if len(objs) != 2 {
			t.Errorf("%s: got %d objects", s, len(objs))
		}
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain   text\n here", "plain text here"},
		{"<p>Hello&nbsp;<em>world</em></p>", "Hello world"},
		{"<style>p{}</style><div>A</div><div>B</div>", "A B"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := plainText(tt.in); got != tt.want {
			t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
