package domain

import (
	"errors"
	"fmt"
)

// ICECandidate is a network path descriptor exchanged during connection
// establishment. Mid/MLineIndex are optional on the wire.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// AnnotationAction is the closed set of screen-share annotation verbs.
type AnnotationAction string

const (
	AnnotationStroke       AnnotationAction = "stroke"
	AnnotationStrokeUpdate AnnotationAction = "stroke_update"
	AnnotationErase        AnnotationAction = "erase"
	AnnotationClear        AnnotationAction = "clear"
	AnnotationAllowDrawing AnnotationAction = "allow_drawing"
)

var ErrUnknownAnnotationAction = errors.New("unknown annotation action")

// ParseAnnotationAction validates a wire value against the closed set.
func ParseAnnotationAction(s string) (AnnotationAction, error) {
	switch a := AnnotationAction(s); a {
	case AnnotationStroke, AnnotationStrokeUpdate, AnnotationErase, AnnotationClear, AnnotationAllowDrawing:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAnnotationAction, s)
	}
}

// AnnotationEvent is one drawing action on a shared screen.
type AnnotationEvent struct {
	Action  AnnotationAction `json:"action"`
	Payload string           `json:"payload,omitempty"`
}
