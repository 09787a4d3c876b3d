// Package bankfile reads question bank definitions used to seed a process:
// its topic rules, its questions and optionally its users.
package bankfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Bank struct {
	Process   string     `yaml:"process"`
	Rules     []Rule     `yaml:"rules"`
	Questions []Question `yaml:"questions"`
	Users     []User     `yaml:"users"`
}

type Rule struct {
	Category        string `yaml:"category"`
	MinAttempt      int    `yaml:"min_attempt"`
	MaxDisplay      int    `yaml:"max_display"`
	RequiredAttempt *int   `yaml:"required_attempt"`
	Order           int    `yaml:"order"`
}

// Question.Answer is a string for single_choice, a list for multi_select and
// either form for free_text.
type Question struct {
	ID       string    `yaml:"id"`
	Category string    `yaml:"category"`
	Type     string    `yaml:"type"`
	Text     string    `yaml:"text"`
	Options  []string  `yaml:"options"`
	Answer   yaml.Node `yaml:"answer"`
}

type User struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

func Load(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a bank document.
func Parse(r io.Reader) (*Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var b Bank
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate reports every problem in the document at once.
func (b *Bank) Validate() error {
	var errs []error
	if strings.TrimSpace(b.Process) == "" {
		errs = append(errs, errors.New("process is required"))
	}
	seen := map[string]bool{}
	for i, r := range b.Rules {
		key := strings.ToLower(strings.TrimSpace(r.Category))
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("rules[%d]: category is required", i))
		case seen[key]:
			errs = append(errs, fmt.Errorf("rules[%d]: duplicate category %q", i, r.Category))
		}
		seen[key] = true
		if r.MinAttempt < 0 || r.MaxDisplay < 0 || r.Order < 0 {
			errs = append(errs, fmt.Errorf("rules[%d]: negative limits", i))
		}
		if r.RequiredAttempt != nil && (*r.RequiredAttempt < 0 || *r.RequiredAttempt > r.MaxDisplay) {
			errs = append(errs, fmt.Errorf("rules[%d]: required_attempt must be between 0 and max_display", i))
		}
	}
	for i, q := range b.Questions {
		if err := q.validate(); err != nil {
			errs = append(errs, fmt.Errorf("questions[%d]: %w", i, err))
		}
	}
	for i, u := range b.Users {
		if !strings.Contains(u.Email, "@") {
			errs = append(errs, fmt.Errorf("users[%d]: invalid email %q", i, u.Email))
		}
		switch strings.TrimSpace(u.Role) {
		case "", "user", "admin":
		default:
			errs = append(errs, fmt.Errorf("users[%d]: unknown role %q", i, u.Role))
		}
	}
	return errors.Join(errs...)
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("text is required")
	}
	if strings.TrimSpace(q.Category) == "" {
		return errors.New("category is required")
	}
	answers, err := q.answers()
	if err != nil {
		return err
	}
	switch q.Type {
	case "single_choice":
		if q.Answer.Kind != yaml.ScalarNode {
			return errors.New("single_choice answer must be a string")
		}
		if !containsFold(q.Options, answers[0]) {
			return fmt.Errorf("answer %q is not an option", answers[0])
		}
	case "multi_select":
		if q.Answer.Kind != yaml.SequenceNode || len(answers) == 0 {
			return errors.New("multi_select answer must be a non-empty list")
		}
		for _, a := range answers {
			if !containsFold(q.Options, a) {
				return fmt.Errorf("answer %q is not an option", a)
			}
		}
	case "free_text":
		if len(answers) == 0 {
			return errors.New("free_text needs at least one accepted answer")
		}
	default:
		return fmt.Errorf("unknown type %q", q.Type)
	}
	return nil
}

func (q Question) answers() ([]string, error) {
	switch q.Answer.Kind {
	case yaml.ScalarNode:
		var s string
		if err := q.Answer.Decode(&s); err != nil {
			return nil, fmt.Errorf("answer: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, errors.New("answer is required")
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := q.Answer.Decode(&list); err != nil {
			return nil, fmt.Errorf("answer: %w", err)
		}
		return list, nil
	case 0:
		return nil, errors.New("answer is required")
	default:
		return nil, errors.New("answer must be a string or list")
	}
}

// CorrectAnswerJSON renders the answer in the stored question format.
func (q Question) CorrectAnswerJSON() (json.RawMessage, error) {
	answers, err := q.answers()
	if err != nil {
		return nil, err
	}
	if q.Answer.Kind == yaml.ScalarNode {
		return json.Marshal(answers[0])
	}
	return json.Marshal(answers)
}

func (q Question) OptionsJSON() (json.RawMessage, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	return json.Marshal(q.Options)
}

func containsFold(list []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}
