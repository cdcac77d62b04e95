package model

import "image"

// Instruction kinds.
const (
	InstructionText  = "text"
	InstructionImage = "image"
)

// Text alignments.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// DrawInstruction is one primitive the document renderer executes. Coordinates
// and sizes are in the owning template's units. Raster carries decoded pixels
// for image instructions and is excluded from the wire shape; transports embed
// it as a data URI instead.
type DrawInstruction struct {
	Kind     string      `json:"kind" example:"text"`
	Value    string      `json:"value,omitempty" example:"X0012ABCDE"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	FontSize float64     `json:"fontSize,omitempty"`
	Align    string      `json:"align,omitempty"`
	Bold     bool        `json:"bold,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Height   float64     `json:"height,omitempty"`
	Raster   image.Image `json:"-"`
}

// Page is one rendered label instance, as an ordered list of instructions.
type Page []DrawInstruction
