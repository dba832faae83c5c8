package domain

// Repository identifies a remote repository whose class catalog can be exported
type Repository struct {
	ID          string `json:"repoId" toml:"id"`
	DisplayName string `json:"name" toml:"name"`
}

// Field describes a single field (slot) of a class. Attributes are passed
// through unexamined.
type Field struct {
	Name       string
	Attributes map[string]any
}

// Class describes a class and its fields, keyed by field name
type Class struct {
	Name   string
	Fields map[string]Field
}

// FieldNames returns the names of all fields of the class in no particular order
func (c Class) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for name := range c.Fields {
		names = append(names, name)
	}
	return names
}

// HasField reports whether the class declares the named field
func (c Class) HasField(name string) bool {
	_, ok := c.Fields[name]
	return ok
}

// Catalog maps class names to their descriptors for one repository
type Catalog map[string]Class

// Has reports whether the catalog contains the named class
func (c Catalog) Has(className string) bool {
	_, ok := c[className]
	return ok
}

// ClassNames returns all class names in no particular order
func (c Catalog) ClassNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	return names
}

// ClassSummary is one row of the selection summary
type ClassSummary struct {
	ClassName  string
	FieldCount int
}

// ClassSelection is one class entry of an export request
type ClassSelection struct {
	ClassName string
	Fields    []string // alphabetical
}

// ExportRequest is the canonical document sent to the export executor.
// It is built on demand and never stored.
type ExportRequest struct {
	RepositoryID    string
	ExternalName    string
	IDPrefix        *string
	ClassSelections []ClassSelection
}

// Artifact is the file returned by a successful export
type Artifact struct {
	Filename string
	Data     []byte
}
