package domain

import "strings"

// PromptRecord describes one generated image: the prompt and style it came
// from, the task artifact holding it, and the generation seed.
type PromptRecord struct {
	Prompt       string `json:"prompt" yaml:"prompt"`
	Style        string `json:"style" yaml:"style"`
	ImageRef     string `json:"img_val" yaml:"img_val"`
	TaskPathspec string `json:"task_pathspec" yaml:"task_pathspec"`
	RunID        string `json:"run_id" yaml:"run_id"`
	Seed         int64  `json:"seed" yaml:"seed"`
}

// Title is the caption used when the image is displayed.
func (p PromptRecord) Title() string {
	prompt := strings.TrimSpace(p.Prompt)
	style := strings.TrimSpace(p.Style)
	switch {
	case style == "":
		return prompt
	case prompt == "":
		return style
	default:
		return prompt + ", " + style
	}
}
