package types

// FieldKind enumerates the storable field types a schema may declare.
type FieldKind string

const (
	KindInt    FieldKind = "int"
	KindFloat  FieldKind = "float"
	KindString FieldKind = "string"
	KindBool   FieldKind = "bool"
	KindPoint  FieldKind = "point" // spatial position, a numeric triple
)

// FieldSpec describes one flattened column of a schema type. Segmentation
// marks the field as belonging to the segmentation partition; everything
// else lands in the annotation partition.
type FieldSpec struct {
	Name         string
	Kind         FieldKind
	Required     bool
	Segmentation bool
}

// FieldSchema is the resolved, flattened descriptor for a schema type.
// Field order is the column order of the backing storage.
//
// Reference marks a reference-kind schema: tables created with it must
// name an existing reference_table in their metadata.
type FieldSchema struct {
	SchemaType string
	Reference  bool
	Fields     []FieldSpec
}

// AnnotationFields returns the fields of the annotation partition,
// in declaration order.
func (s *FieldSchema) AnnotationFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if !f.Segmentation {
			out = append(out, f)
		}
	}
	return out
}

// SegmentationFields returns the fields of the segmentation partition,
// in declaration order.
func (s *FieldSchema) SegmentationFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if f.Segmentation {
			out = append(out, f)
		}
	}
	return out
}

// SchemaRegistry resolves schema type names to field descriptors.
// Resolve returns ErrUnknownSchemaType for unregistered names.
// Schemas are immutable for a given type name once registered.
type SchemaRegistry interface {
	Resolve(schemaType string) (*FieldSchema, error)
	List() []string
}
