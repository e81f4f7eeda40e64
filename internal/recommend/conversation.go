package recommend

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/validation"
)

// Clarifier answers beginner questions about a goal.
type Clarifier interface {
	Clarify(ctx context.Context, req service.ClarifyRequest) (string, error)
}

type TurnState string

const (
	TurnPending  TurnState = "pending"
	TurnAnswered TurnState = "answered"
	TurnFailed   TurnState = "failed"
)

// Turn is one question in a clarification conversation. While Pending the
// answer is empty; a Failed turn carries the error message as its answer.
type Turn struct {
	ID       int       `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	State    TurnState `json:"state"`
}

// Conversation is the beginner clarification thread for one goal. Turns
// are appended immediately and resolved in the background by their local
// id, so answers arriving out of order land on the right turn.
type Conversation struct {
	svc   Clarifier
	goal  string
	level string
	prefs []string

	mu     sync.Mutex
	nextID int
	turns  []Turn
	wg     sync.WaitGroup
}

func NewConversation(svc Clarifier, goal, level string, prefs []string) *Conversation {
	return &Conversation{
		svc:   svc,
		goal:  strings.TrimSpace(goal),
		level: strings.TrimSpace(level),
		prefs: append([]string{}, prefs...),
	}
}

// Goal returns the goal the conversation is about.
func (c *Conversation) Goal() string { return c.goal }

// Ask appends a pending turn for question and returns its id. Earlier
// answered turns are sent along as history.
func (c *Conversation) Ask(ctx context.Context, question string) (int, error) {
	question = strings.TrimSpace(question)
	if err := validation.Var("question", question, "required"); err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	history := make([]service.ClarifyTurn, 0, len(c.turns))
	for _, t := range c.turns {
		if t.State == TurnAnswered {
			history = append(history, service.ClarifyTurn{Question: t.Question, Answer: t.Answer})
		}
	}
	c.turns = append(c.turns, Turn{ID: id, Question: question, State: TurnPending})
	c.mu.Unlock()

	req := service.ClarifyRequest{
		Question: question,
		Context: service.ClarifyContext{
			Goal:         c.goal,
			CurrentLevel: c.level,
			Preferences:  c.prefs,
			History:      history,
		},
	}

	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		answer, err := c.svc.Clarify(bg, req)
		if err != nil {
			slog.Warn("clarification failed", "turn", id, "error", err)
			c.resolve(id, err.Error(), TurnFailed)
			return
		}
		c.resolve(id, answer, TurnAnswered)
	}()
	return id, nil
}

func (c *Conversation) resolve(id int, answer string, state TurnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.turns {
		if c.turns[i].ID == id {
			c.turns[i].Answer = answer
			c.turns[i].State = state
			return
		}
	}
}

// Turns returns a snapshot of every turn in creation order.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn{}, c.turns...)
}

// Wait blocks until every asked question has resolved.
func (c *Conversation) Wait() {
	c.wg.Wait()
}
