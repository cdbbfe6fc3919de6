// Package content turns authoring-time block definitions (XML) into
// configured mentoring blocks. Validation stops at structure: choice
// lists, weights and tip wiring belong to each question type.
package content

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/edunexus/mentoring-block/internal/mentoring"
	"github.com/edunexus/mentoring-block/internal/questions"
)

type blockXML struct {
	XMLName           xml.Name   `xml:"mentoring"`
	URLName           string     `xml:"url_name,attr"`
	Mode              string     `xml:"mode,attr"`
	MaxAttempts       string     `xml:"max_attempts,attr"`
	ExtendedFeedback  bool       `xml:"extended_feedback,attr"`
	EnforceDependency bool       `xml:"enforce_dependency,attr"`
	FollowedBy        string     `xml:"followed_by,attr"`
	Children          []childXML `xml:",any"`
}

type childXML struct {
	XMLName xml.Name
	Name    string      `xml:"name,attr"`
	Weight  string      `xml:"weight,attr"`
	Type    string      `xml:"type,attr"`
	Choices []choiceXML `xml:"choice"`
	Tips    []tipXML    `xml:"tip"`
	Text    string      `xml:",chardata"`
}

type choiceXML struct {
	Value    string `xml:"value,attr"`
	Correct  bool   `xml:"correct,attr"`
	Required bool   `xml:"required,attr"`
	Ignored  bool   `xml:"ignored,attr"`
	Label    string `xml:",chardata"`
}

type tipXML struct {
	On   string `xml:"on,attr"`
	Text string `xml:",chardata"`
}

// DefaultAssessmentAttempts applies when an assessment definition
// omits max_attempts.
const DefaultAssessmentAttempts = 2

// Parse builds a Block from an XML definition. Title, shared-header
// and message children are floating: they configure feedback and
// presentation but never become steps.
func Parse(data []byte) (*mentoring.Block, error) {
	var def blockXML
	if err := xml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("malformed block definition: %w", err)
	}

	mode := mentoring.Mode(def.Mode)
	if def.Mode == "" {
		mode = mentoring.ModeStandard
	}
	if mode != mentoring.ModeStandard && mode != mentoring.ModeAssessment {
		return nil, fmt.Errorf("invalid mentoring mode %q: should be 'standard' or 'assessment'", def.Mode)
	}

	steps := []mentoring.Gradable{}
	messages := mentoring.MessageMap{}
	for _, child := range def.Children {
		switch child.XMLName.Local {
		case "title", "shared-header", "html":
			// decorative; rendering is the host's concern
		case "message":
			messages[mentoring.MessageKind(child.Type)] = child.Text
		case "mcq":
			q, err := parseMCQ(child)
			if err != nil {
				return nil, err
			}
			steps = append(steps, q)
		case "mrq":
			q, err := parseMRQ(child)
			if err != nil {
				return nil, err
			}
			steps = append(steps, q)
		case "answer":
			if child.Name == "" {
				return nil, fmt.Errorf("answer element missing name attribute")
			}
			steps = append(steps, &questions.FreeText{ID: child.Name, Points: weightOf(child)})
		default:
			return nil, fmt.Errorf("unknown child element <%s>", child.XMLName.Local)
		}
	}

	b := mentoring.NewBlock(mode, steps, messages)
	b.ExtendedFeedback = def.ExtendedFeedback
	b.EnforceDependency = def.EnforceDependency
	b.FollowedBy = def.FollowedBy
	b.URLName = def.URLName
	if b.URLName == "" {
		b.URLName = "mentoring-" + uuid.NewString()
	}

	if def.MaxAttempts != "" {
		n, err := strconv.Atoi(def.MaxAttempts)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid max_attempts %q", def.MaxAttempts)
		}
		b.MaxAttempts = n
	} else if mode == mentoring.ModeAssessment {
		b.MaxAttempts = DefaultAssessmentAttempts
	}
	return b, nil
}

func parseMCQ(child childXML) (*questions.MCQ, error) {
	if child.Name == "" {
		return nil, fmt.Errorf("mcq element missing name attribute")
	}
	q := &questions.MCQ{ID: child.Name, Points: weightOf(child), Tips: map[string]string{}}
	for _, c := range child.Choices {
		if c.Correct {
			q.Accepted = append(q.Accepted, c.Value)
		}
	}
	for _, t := range child.Tips {
		q.Tips[t.On] = t.Text
	}
	return q, nil
}

func parseMRQ(child childXML) (*questions.MRQ, error) {
	if child.Name == "" {
		return nil, fmt.Errorf("mrq element missing name attribute")
	}
	q := &questions.MRQ{ID: child.Name, Points: weightOf(child), Tips: map[string]string{}}
	for _, c := range child.Choices {
		switch {
		case c.Required:
			q.Required = append(q.Required, c.Value)
		case c.Ignored:
			q.Ignored = append(q.Ignored, c.Value)
		}
	}
	for _, t := range child.Tips {
		q.Tips[t.On] = t.Text
	}
	return q, nil
}

func weightOf(child childXML) float64 {
	if child.Weight == "" {
		return 1
	}
	w, err := strconv.ParseFloat(child.Weight, 64)
	if err != nil || w < 0 {
		return 1
	}
	return w
}

// LoadDir parses every .xml definition in dir, keyed by url_name.
func LoadDir(dir string) (map[string]*mentoring.Block, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	blocks := map[string]*mentoring.Block{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		blocks[b.URLName] = b
	}
	return blocks, nil
}
