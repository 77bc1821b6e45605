// Package tablekey encodes and decodes table ids. A table id joins the
// namespace and the table name with a reserved separator; segmentation
// table ids append the segmentation source as a further segment. The
// separator is the one character sequence disallowed in namespace,
// table name, and segmentation source inputs.
package tablekey

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// Separator joins the segments of a table id.
const Separator = "__"

// BuildTableID returns the table id for a (namespace, tableName) pair.
// Fails with ErrSeparatorInName if either input contains the separator.
func BuildTableID(namespace, tableName string) (string, error) {
	if err := checkSegment(namespace); err != nil {
		return "", err
	}
	if err := checkSegment(tableName); err != nil {
		return "", err
	}
	return namespace + Separator + tableName, nil
}

// BuildSegmentationTableID returns the id of the segmentation table
// shadowing annotationTableID for the given segmentation source.
func BuildSegmentationTableID(annotationTableID, segmentationSource string) (string, error) {
	if err := checkSegment(segmentationSource); err != nil {
		return "", err
	}
	return annotationTableID + Separator + segmentationSource, nil
}

// TableNameFromID returns the final separator-delimited segment of a
// table id. For a segmentation table id this is the segmentation
// source; decode the owning annotation table by trimming it.
func TableNameFromID(tableID string) string {
	parts := strings.Split(tableID, Separator)
	return parts[len(parts)-1]
}

// NamespaceFromID returns the namespace segment of a table id, or an
// error if the id has fewer than two segments.
func NamespaceFromID(tableID string) (string, error) {
	parts := strings.Split(tableID, Separator)
	if len(parts) < 2 {
		return "", fmt.Errorf("table id %q has no namespace segment: %w", tableID, types.ErrValidation)
	}
	return parts[0], nil
}

func checkSegment(s string) error {
	if strings.Contains(s, Separator) {
		return fmt.Errorf("%q: %w", s, types.ErrSeparatorInName)
	}
	return nil
}
