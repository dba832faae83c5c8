// Package export turns the selection into the canonical export request.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dupexport/internal/domain"
)

// ValidationKind identifies which precondition a build failed
type ValidationKind int

const (
	NoRepositorySelected ValidationKind = iota + 1
	MissingName
	NoFieldsSelected
)

func (k ValidationKind) String() string {
	switch k {
	case NoRepositorySelected:
		return "NoRepositorySelected"
	case MissingName:
		return "MissingName"
	case NoFieldsSelected:
		return "NoFieldsSelected"
	}
	return fmt.Sprintf("ValidationKind(%d)", int(k))
}

// ValidationError blocks a submission locally; it is never sent to the server
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case NoRepositorySelected:
		return "please select a repository"
	case MissingName:
		return "please enter an external repository name"
	case NoFieldsSelected:
		return "please select at least one class with fields"
	}
	return e.Kind.String()
}

// Is lets errors.Is match on the kind alone
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNoRepositorySelected = &ValidationError{Kind: NoRepositorySelected}
	ErrMissingName          = &ValidationError{Kind: MissingName}
	ErrNoFieldsSelected     = &ValidationError{Kind: NoFieldsSelected}
)

// Selection is the read side of the selection store used by Build
type Selection interface {
	HasAnySelection() bool
	SelectedSummary() []domain.ClassSummary
	SelectedFields(className string) []string
}

// Build validates the inputs and assembles an export request. It only reads
// from sel. Classes keep the catalog display order and fields are sorted, so
// identical state always produces an identical request.
func Build(repositoryID, externalName, idPrefix string, sel Selection) (domain.ExportRequest, error) {
	if repositoryID == "" {
		return domain.ExportRequest{}, ErrNoRepositorySelected
	}
	name := strings.TrimSpace(externalName)
	if name == "" {
		return domain.ExportRequest{}, ErrMissingName
	}
	if !sel.HasAnySelection() {
		return domain.ExportRequest{}, ErrNoFieldsSelected
	}

	req := domain.ExportRequest{
		RepositoryID: repositoryID,
		ExternalName: name,
	}
	if prefix := strings.TrimSpace(idPrefix); prefix != "" {
		req.IDPrefix = &prefix
	}

	for _, row := range sel.SelectedSummary() {
		req.ClassSelections = append(req.ClassSelections, domain.ClassSelection{
			ClassName: row.ClassName,
			Fields:    sel.SelectedFields(row.ClassName),
		})
	}
	if len(req.ClassSelections) == 0 {
		return domain.ExportRequest{}, ErrNoFieldsSelected
	}
	return req, nil
}

type wireRequest struct {
	RepoID                 string      `json:"repoId"`
	ExternalRepositoryName string      `json:"externalRepositoryName"`
	IDPrefix               *string     `json:"idPrefix"`
	ClassSelections        []wireClass `json:"classSelections"`
}

type wireClass struct {
	ClassName string      `json:"className"`
	Selected  bool        `json:"selected"`
	Fields    []wireField `json:"fields"`
}

type wireField struct {
	FieldName string `json:"fieldName"`
	Selected  bool   `json:"selected"`
}

// Encode renders the request body expected by the export executor
func Encode(req domain.ExportRequest) ([]byte, error) {
	if req.RepositoryID == "" {
		return nil, errors.New("encode: request has no repository")
	}

	w := wireRequest{
		RepoID:                 req.RepositoryID,
		ExternalRepositoryName: req.ExternalName,
		IDPrefix:               req.IDPrefix,
		ClassSelections:        make([]wireClass, 0, len(req.ClassSelections)),
	}
	for _, cs := range req.ClassSelections {
		wc := wireClass{
			ClassName: cs.ClassName,
			Selected:  true,
			Fields:    make([]wireField, 0, len(cs.Fields)),
		}
		for _, f := range cs.Fields {
			wc.Fields = append(wc.Fields, wireField{FieldName: f, Selected: true})
		}
		w.ClassSelections = append(w.ClassSelections, wc)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encode export request: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Indent pretty-prints an encoded request for previews
func Indent(payload []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return payload
	}
	return buf.Bytes()
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ArtifactFilename returns the local file name for an export: the external
// name with unsafe characters replaced, plus ".dup".
func ArtifactFilename(externalName string) string {
	name := strings.TrimSpace(externalName)
	if name == "" {
		return "export.dup"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_") + ".dup"
}
