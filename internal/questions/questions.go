// Package questions generates age-appropriate discussion questions for a
// passage, one per family member.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfigured is returned when no OpenAI API key is available.
var ErrNotConfigured = errors.New("questions: OpenAI API key not configured")

// FamilyMember is one participant in a reading session.
type FamilyMember struct {
	Name string `yaml:"name" json:"name"`
	Age  int    `yaml:"age" json:"age"`
}

// Question is one generated discussion question, addressed to a member.
type Question struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Question string `json:"question"`
}

// Generator produces questions through the OpenAI chat API.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel overrides the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(g *Generator) { g.model = model }
}

// WithBaseURL points the generator at a different endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(g *Generator) {
		g.client = openai.NewClient(option.WithBaseURL(u), option.WithAPIKey("test"))
	}
}

func NewGenerator(apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	g := &Generator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces one question per member, fetched concurrently. A failure
// for any member fails the whole batch so the session never starts with a
// partial question list.
func (g *Generator) Generate(ctx context.Context, passage, reference string, members []FamilyMember) ([]Question, error) {
	result := make([]Question, len(members))

	eg, ctx := errgroup.WithContext(ctx)
	for i, member := range members {
		eg.Go(func() error {
			q, err := g.generateOne(ctx, passage, reference, member)
			if err != nil {
				return fmt.Errorf("question for %s: %w", member.Name, err)
			}
			result[i] = q
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) generateOne(ctx context.Context, passage, reference string, member FamilyMember) (Question, error) {
	log.Debug("generating question", "member", member.Name, "age", member.Age)

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       g.model,
		Temperature: openai.Float(0.7),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(Prompt(passage, reference, member)),
		},
	})
	if err != nil {
		return Question{}, err
	}
	if len(completion.Choices) == 0 {
		return Question{}, errors.New("empty completion")
	}

	return Question{
		Name:     member.Name,
		Age:      member.Age,
		Question: strings.TrimSpace(completion.Choices[0].Message.Content),
	}, nil
}

// Prompt builds the generation prompt for one member. Age bands steer the
// register: concrete stories and feelings for young children, application
// and character for older ones, theology for teens and adults.
func Prompt(passage, reference string, member FamilyMember) string {
	return fmt.Sprintf(`You are creating engaging Bible study questions for a family devotional time.

Scripture passage: %s
Text: %s

Create ONE thought-provoking, age-appropriate question for %s, who is %d years old.

Guidelines:
- For ages 3-7: Use simple language, focus on concrete concepts, stories, and feelings
- For ages 8-12: Ask about application, character traits, and simple "why" questions
- For ages 13+: Deeper theological questions, life application, challenging thoughts

The question should:
1. Be engaging and conversational
2. Help them connect the passage to their own life
3. Encourage discussion (not just yes/no)
4. Be appropriate for their age and maturity

Return ONLY the question, nothing else.`, reference, passage, member.Name, member.Age)
}
