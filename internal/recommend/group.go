package recommend

import "github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"

// stageCap is the most courses shown per stage.
const stageCap = 3

// StageGroup is one stage of a grouped recommendation.
type StageGroup struct {
	Stage   service.Stage    `json:"stage"`
	Courses []service.Course `json:"courses"`
}

// GroupByStage returns exactly one group per stage, in stage order. Each
// group drops placeholders, keeps the first entry for a repeated id, hides
// ids in notInterested, and holds at most three courses. A flat result is
// split by each course's stage, with unstaged courses counted as
// foundation. GroupByStage has no side effects.
func GroupByStage(result *service.Recommendation, notInterested map[int64]bool) []StageGroup {
	groups := make([]StageGroup, 0, len(service.Stages))
	for _, st := range service.Stages {
		groups = append(groups, StageGroup{
			Stage:   st,
			Courses: pickStage(stageSource(result, st), notInterested),
		})
	}
	return groups
}

func stageSource(result *service.Recommendation, st service.Stage) []service.Course {
	if result == nil {
		return nil
	}
	if result.HasStages {
		return result.CoursesByStage[st]
	}
	var out []service.Course
	for _, c := range result.Courses {
		cs := c.Stage
		if cs == "" {
			cs = service.StageFoundation
		}
		if cs == st {
			out = append(out, c)
		}
	}
	return out
}

func pickStage(src []service.Course, notInterested map[int64]bool) []service.Course {
	out := make([]service.Course, 0, stageCap)
	seen := make(map[int64]bool, len(src))
	for _, c := range src {
		if c.IsPlaceholder() || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if notInterested[c.ID] {
			continue
		}
		out = append(out, c)
		if len(out) == stageCap {
			break
		}
	}
	return out
}
