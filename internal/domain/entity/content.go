// Package entity defines the domain types shared by the summarization, analysis and
// question answering services, together with their validation rules.
package entity

import (
	"fmt"
	"strings"
)

// ContentClass selects the model and chunk window used to summarize an input.
type ContentClass string

const (
	ClassText         ContentClass = "text"
	ClassDocument     ContentClass = "document"
	ClassURL          ContentClass = "url"
	ClassTranscript   ContentClass = "transcript"
	ClassMultilingual ContentClass = "multilingual"
)

// ContentClasses lists every class in a stable order.
var ContentClasses = []ContentClass{ClassText, ClassDocument, ClassURL, ClassTranscript, ClassMultilingual}

// ParseContentClass accepts the class names plus "youtube" as an alias of transcript.
func ParseContentClass(s string) (ContentClass, error) {
	c := ContentClass(strings.ToLower(strings.TrimSpace(s)))
	if c == "youtube" {
		return ClassTranscript, nil
	}
	if c.IsValid() {
		return c, nil
	}
	return "", &ValidationError{Field: "content_type", Message: fmt.Sprintf("unknown content type %q", s)}
}

// IsValid reports whether c is a known class.
func (c ContentClass) IsValid() bool {
	for _, known := range ContentClasses {
		if c == known {
			return true
		}
	}
	return false
}

// Style scales the target summary length.
type Style string

const (
	StyleBrief         Style = "brief"
	StyleDetailed      Style = "detailed"
	StyleComprehensive Style = "comprehensive"
)

// DefaultStyle is used when a request names no style.
const DefaultStyle = StyleDetailed

// ParseStyle returns DefaultStyle for an empty string.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "":
		return DefaultStyle, nil
	case StyleBrief, StyleDetailed, StyleComprehensive:
		return st, nil
	}
	return "", &ValidationError{
		Field:   "summary_style",
		Message: "must be one of 'brief', 'detailed', 'comprehensive'",
	}
}
