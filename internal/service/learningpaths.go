package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type LearningPathService struct {
	c *client.Client
}

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	Goal         string   `json:"goal" validate:"required"`
	CurrentLevel string   `json:"currentLevel,omitempty"`
	Preferences  []string `json:"preferences"`
	Verbosity    string   `json:"verbosity,omitempty" validate:"omitempty,oneof=deep medium"`
	GuidanceMode string   `json:"guidanceMode,omitempty" validate:"omitempty,oneof=novice standard"`
}

// ClarifyTurn is one earlier question/answer pair sent as context.
type ClarifyTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ClarifyContext struct {
	Goal         string        `json:"goal"`
	CurrentLevel string        `json:"currentLevel"`
	Preferences  []string      `json:"preferences"`
	History      []ClarifyTurn `json:"history"`
}

type ClarifyRequest struct {
	Question string         `json:"question" validate:"required"`
	Context  ClarifyContext `json:"context"`
}

// Recommend requests a staged course plan. The request is sent once.
func (s *LearningPathService) Recommend(ctx context.Context, req RecommendationRequest) (Recommendation, error) {
	if req.Preferences == nil {
		req.Preferences = []string{}
	}
	m, err := postObject(ctx, s.c, "/recommendations", req)
	if err != nil {
		return Recommendation{}, err
	}
	if inner := pickObject(m, "recommendation", "result"); inner != nil {
		return NormalizeRecommendation(inner), nil
	}
	return NormalizeRecommendation(m), nil
}

// Ask sends a follow-up question about an existing recommendation.
func (s *LearningPathService) Ask(ctx context.Context, recommendationID, question string) (string, error) {
	m, err := postObject(ctx, s.c, "/recommendations/ask", map[string]string{
		"recommendationId": recommendationID,
		"question":         question,
	})
	if err != nil {
		return "", err
	}
	return answerOf(m)
}

// Clarify answers a beginner's question given the goal so far.
func (s *LearningPathService) Clarify(ctx context.Context, req ClarifyRequest) (string, error) {
	if req.Context.Preferences == nil {
		req.Context.Preferences = []string{}
	}
	if req.Context.History == nil {
		req.Context.History = []ClarifyTurn{}
	}
	m, err := postObject(ctx, s.c, "/recommendations/clarify", req)
	if err != nil {
		return "", err
	}
	return answerOf(m)
}

func answerOf(m object) (string, error) {
	if a := pickString(m, "answer", "reply", "message"); a != "" {
		return a, nil
	}
	return "", errors.New("response carried no answer")
}

// SavePath stores a named snapshot of selected courses against a
// recommendation and returns the created path id.
func (s *LearningPathService) SavePath(ctx context.Context, recommendationID, name string, courseIDs []int64) (int64, error) {
	if courseIDs == nil {
		courseIDs = []int64{}
	}
	path := fmt.Sprintf("/recommendations/%s/learning-paths", url.PathEscape(recommendationID))
	m, err := postObject(ctx, s.c, path, map[string]any{
		"name":              name,
		"selectedCourseIds": courseIDs,
	})
	if err != nil {
		return 0, err
	}
	id := pickID(m, "id", "learning_path_id", "learningPathId")
	if id == 0 {
		if lp := pickObject(m, "learningPath", "learning_path"); lp != nil {
			id = pickID(lp, "id")
		}
	}
	if id == 0 {
		return 0, errors.New("save response carried no path id")
	}
	return id, nil
}

// MyPaths lists the learning paths the current user saved on the server.
func (s *LearningPathService) MyPaths(ctx context.Context) ([]LearningPath, error) {
	objs, err := getObjects(ctx, s.c, "/learning-paths/me")
	if err != nil {
		return nil, err
	}
	out := make([]LearningPath, 0, len(objs))
	for _, o := range objs {
		out = append(out, NormalizeLearningPath(o))
	}
	return out, nil
}
