package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"elearning/internal/apperr"
	"elearning/internal/db"

	"gopkg.in/yaml.v3"
)

// Bundle is an authored set of lessons loaded from YAML:
//
//	lessons:
//	  - id: logic-1
//	    title: Propositional logic
//	    sections:
//	      - id: logic-1-s1
//	        title: Connectives
//	        quizzes:
//	          - id: logic-1-s1-q1
//	            question: Which is a tautology?
//	            options: ["p ∧ ¬p", "p ∨ ¬p"]
//	            correct: "1"
type Bundle struct {
	Lessons []BundleLesson `yaml:"lessons"`
}

type BundleLesson struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Sections    []BundleSection `yaml:"sections"`
}

type BundleSection struct {
	ID      string       `yaml:"id"`
	Title   string       `yaml:"title"`
	Quizzes []BundleQuiz `yaml:"quizzes"`
}

type BundleQuiz struct {
	ID       string    `yaml:"id"`
	Question string    `yaml:"question"`
	Options  OptionSet `yaml:"options"`
	Correct  string    `yaml:"correct"`
}

// OptionSet holds quiz options authored either as a YAML sequence (keyed by
// index) or as a mapping of key to text.
type OptionSet struct {
	List  []string
	Keyed map[string]string
}

func (o *OptionSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&o.List)
	case yaml.MappingNode:
		return value.Decode(&o.Keyed)
	default:
		return fmt.Errorf("line %d: options must be a list or a mapping", value.Line)
	}
}

func (o OptionSet) has(key string) bool {
	if o.Keyed != nil {
		_, ok := o.Keyed[key]
		return ok
	}
	i, err := strconv.Atoi(key)
	return err == nil && i >= 0 && i < len(o.List)
}

func (o OptionSet) len() int {
	if o.Keyed != nil {
		return len(o.Keyed)
	}
	return len(o.List)
}

func (o OptionSet) storedJSON() (string, error) {
	var (
		b   []byte
		err error
	)
	if o.Keyed != nil {
		b, err = json.Marshal(o.Keyed)
	} else {
		b, err = json.Marshal(o.List)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type ImportResult struct {
	Lessons  int `json:"lessons"`
	Sections int `json:"sections"`
	Quizzes  int `json:"quizzes"`
}

func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if err == io.EOF {
			return nil, apperr.InvalidInput("content bundle is empty")
		}
		return nil, apperr.InvalidInput("decode content bundle: " + err.Error())
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func LoadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content bundle: %w", err)
	}
	defer f.Close()
	return DecodeBundle(f)
}

// Validate checks ids are present and unique and every correct answer names
// one of its quiz's options.
func (b *Bundle) Validate() error {
	seen := make(map[string]string)
	claim := func(kind, id string) error {
		if strings.TrimSpace(id) == "" {
			return apperr.InvalidInput(kind + " id is required")
		}
		if prev, ok := seen[id]; ok {
			return apperr.InvalidInput(fmt.Sprintf("duplicate id %q (%s and %s)", id, prev, kind))
		}
		seen[id] = kind
		return nil
	}

	if len(b.Lessons) == 0 {
		return apperr.InvalidInput("content bundle has no lessons")
	}
	for _, l := range b.Lessons {
		if err := claim("lesson", l.ID); err != nil {
			return err
		}
		if strings.TrimSpace(l.Title) == "" {
			return apperr.InvalidInput("lesson " + l.ID + ": title is required")
		}
		for _, s := range l.Sections {
			if err := claim("section", s.ID); err != nil {
				return err
			}
			for _, q := range s.Quizzes {
				if err := claim("quiz", q.ID); err != nil {
					return err
				}
				if strings.TrimSpace(q.Question) == "" {
					return apperr.InvalidInput("quiz " + q.ID + ": question is required")
				}
				if q.Options.len() < 2 {
					return apperr.InvalidInput("quiz " + q.ID + ": at least two options are required")
				}
				if !q.Options.has(q.Correct) {
					return apperr.InvalidInput(fmt.Sprintf("quiz %s: correct answer %q is not an option", q.ID, q.Correct))
				}
			}
		}
	}
	return nil
}

// ImportBundle upserts every lesson, section and quiz of the bundle in one
// transaction. Order in the file becomes order_index.
func (s *Service) ImportBundle(ctx context.Context, b *Bundle) (*ImportResult, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for li, l := range b.Lessons {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lessons (id, title, description, order_index)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET
					title = EXCLUDED.title,
					description = EXCLUDED.description,
					order_index = EXCLUDED.order_index
			`, l.ID, strings.TrimSpace(l.Title), strings.TrimSpace(l.Description), li+1); err != nil {
				return fmt.Errorf("upsert lesson %s: %w", l.ID, err)
			}
			res.Lessons++

			for si, sec := range l.Sections {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO lesson_sections (id, lesson_id, title, order_index)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (id) DO UPDATE SET
						lesson_id = EXCLUDED.lesson_id,
						title = EXCLUDED.title,
						order_index = EXCLUDED.order_index
				`, sec.ID, l.ID, strings.TrimSpace(sec.Title), si+1); err != nil {
					return fmt.Errorf("upsert section %s: %w", sec.ID, err)
				}
				res.Sections++

				for qi, q := range sec.Quizzes {
					options, err := q.Options.storedJSON()
					if err != nil {
						return fmt.Errorf("encode options for quiz %s: %w", q.ID, err)
					}
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO quizzes (id, section_id, order_index, question, options, correct_answer)
						VALUES ($1, $2, $3, $4, $5, $6)
						ON CONFLICT (id) DO UPDATE SET
							section_id = EXCLUDED.section_id,
							order_index = EXCLUDED.order_index,
							question = EXCLUDED.question,
							options = EXCLUDED.options,
							correct_answer = EXCLUDED.correct_answer
					`, q.ID, sec.ID, qi+1, strings.TrimSpace(q.Question), options, q.Correct); err != nil {
						return fmt.Errorf("upsert quiz %s: %w", q.ID, err)
					}
					res.Quizzes++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
