// Package metadata parses the text properties artifact that describes a
// segment's row count, format version, and per-column attributes.
package metadata

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/arloliu/segreader/pkg/errs"
)

const artifactName = "metadata.properties"

// SupportedVersion is the only segment.version this reader accepts.
const SupportedVersion = 3

// ColumnMetadata holds the parsed per-column attributes of one entry under
// the `column.<name>.*` namespace.
type ColumnMetadata struct {
	Name                  string
	DataType              string
	Cardinality           int
	HasDictionary         bool
	BitsPerValue          int
	IsSorted              bool
	StringColumnMaxLength int
	HasStringMaxLength    bool
}

// SegmentMetadata is the parsed form of metadata.properties.
type SegmentMetadata struct {
	TotalDocs int
	Version   int
	TableName string
	Columns   map[string]*ColumnMetadata

	// columnOrder records column names in first-declaration order, so
	// callers that need a stable column ordering (e.g. Schema()) don't have
	// to range over Columns directly.
	columnOrder []string
}

// ColumnNames returns the declared column names in the order they first
// appeared in metadata.properties.
func (m *SegmentMetadata) ColumnNames() []string {
	names := make([]string, len(m.columnOrder))
	copy(names, m.columnOrder)

	return names
}

// column namespace suffixes recognized under `column.<name>.<suffix>`.
const (
	suffixDataType    = "dataType"
	suffixCardinality = "cardinality"
	suffixBitsPerElem = "bitsPerElement"
	suffixHasDict     = "hasDictionary"
	suffixIsSorted    = "isSorted"
	suffixMaxLenA     = "columnMaxLength"
	suffixMaxLenB     = "maxLength"
)

// Parse parses a metadata.properties byte buffer into a SegmentMetadata.
//
// Lines are `key=value`, with `#` or `!` starting a comment and blank lines
// ignored. Keys are dot-separated; column-scoped keys take the form
// `column.<name>.<attribute>`.
func Parse(data []byte) (*SegmentMetadata, error) {
	type entry struct {
		key   string
		value string
	}

	var entries []entry
	raw := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := int64(0)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errs.NewParseErrorAt(errs.ErrMetadataMalformed, artifactName, lineNo,
				"line is not of the form key=value: "+line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, exists := raw[key]; exists {
			return nil, errs.NewParseErrorAt(errs.ErrMetadataMalformed, artifactName, lineNo,
				"duplicate key: "+key)
		}
		raw[key] = value
		entries = append(entries, entry{key: key, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, err.Error())
	}

	meta := &SegmentMetadata{Columns: make(map[string]*ColumnMetadata)}

	totalDocsStr, ok := raw["segment.total.docs"]
	if !ok {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, "missing segment.total.docs")
	}
	totalDocs, err := strconv.Atoi(totalDocsStr)
	if err != nil {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, "segment.total.docs is not an integer: "+totalDocsStr)
	}
	if totalDocs < 0 {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, "segment.total.docs is negative")
	}
	meta.TotalDocs = totalDocs

	versionStr, ok := raw["segment.version"]
	if !ok {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, "missing segment.version")
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName, "segment.version is not an integer: "+versionStr)
	}
	if version != SupportedVersion {
		return nil, errs.NewParseError(errs.ErrMetadataMalformed, artifactName,
			"unsupported segment.version "+versionStr+", only version 3 is supported")
	}
	meta.Version = version

	meta.TableName = raw["segment.table.name"]

	for _, e := range entries {
		if !strings.HasPrefix(e.key, "column.") {
			continue
		}

		rest := e.key[len("column."):]
		name, suffix, ok := strings.Cut(rest, ".")
		if !ok || name == "" || suffix == "" {
			continue
		}

		col, exists := meta.Columns[name]
		if !exists {
			col = &ColumnMetadata{Name: name, HasDictionary: true}
			meta.Columns[name] = col
			meta.columnOrder = append(meta.columnOrder, name)
		}

		if err := applyColumnAttribute(col, name, suffix, e.value); err != nil {
			return nil, err
		}
	}

	return meta, nil
}

func applyColumnAttribute(col *ColumnMetadata, name, suffix, value string) error {
	switch suffix {
	case suffixDataType:
		col.DataType = value
	case suffixCardinality:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.NewColumnError(errs.ErrMetadataMalformed, name, "cardinality is not an integer: "+value)
		}
		col.Cardinality = n
	case suffixBitsPerElem:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.NewColumnError(errs.ErrMetadataMalformed, name, "bitsPerElement is not an integer: "+value)
		}
		col.BitsPerValue = n
	case suffixHasDict:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errs.NewColumnError(errs.ErrMetadataMalformed, name, "hasDictionary is not a boolean: "+value)
		}
		col.HasDictionary = b
	case suffixIsSorted:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errs.NewColumnError(errs.ErrMetadataMalformed, name, "isSorted is not a boolean: "+value)
		}
		col.IsSorted = b
	case suffixMaxLenA, suffixMaxLenB:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.NewColumnError(errs.ErrMetadataMalformed, name, "max length is not an integer: "+value)
		}
		// columnMaxLength takes precedence over maxLength regardless of which
		// one appears first in the file.
		if suffix == suffixMaxLenA || !col.HasStringMaxLength {
			col.StringColumnMaxLength = n
			col.HasStringMaxLength = true
		}
	}

	return nil
}
