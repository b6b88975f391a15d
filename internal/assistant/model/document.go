package model

import "time"

// DocumentType names a document the generator may be asked for.
type DocumentType string

const (
	DocumentContract DocumentType = "Договор"
	// DocumentAct is recognised but not generated.
	DocumentAct DocumentType = "Акт"
)

type DocumentRequest struct {
	Type    DocumentType `validate:"required"`
	Client  string       `validate:"required"`
	Amount  float64      `validate:"gte=0"`
	Service string       `validate:"required"`
}

// Section is one numbered heading with its body text.
type Section struct {
	Heading string
	Body    string
}

// Document is the structured content of a generated document, independent of file format.
type Document struct {
	Type      DocumentType
	Title     string
	CreatedAt time.Time
	Executor  string
	Customer  string
	Sections  []Section
}

// DocumentHandle locates a generated file. The caller delivers and removes it.
type DocumentHandle struct {
	Path     string
	Document Document
}
