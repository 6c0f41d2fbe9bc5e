// Package indexmap parses the index map side table that locates each
// column's dictionary and forward-index regions inside the packed storage
// artifact.
package indexmap

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/arloliu/segreader/pkg/errs"
)

const artifactName = "index_map"

// Section names a region kind within a column's entry.
type Section string

const (
	Dictionary   Section = "dictionary"
	ForwardIndex Section = "forward_index"
)

// Range is a contiguous byte range within the packed storage artifact.
type Range struct {
	Offset int64
	Size   int64
}

// key identifies one (column, section) pair.
type key struct {
	column  string
	section Section
}

// IndexMap holds the resolved (offset, size) ranges for every declared
// (column, section) pair.
type IndexMap struct {
	ranges map[key]Range
}

// Lookup returns the byte range for a (column, section) pair.
func (m *IndexMap) Lookup(column string, section Section) (Range, bool) {
	r, ok := m.ranges[key{column: column, section: section}]

	return r, ok
}

// scalar pairs accumulated while scanning, before being folded into ranges.
type partial struct {
	offset    int64
	hasOffset bool
	size      int64
	hasSize   bool
}

// Parse parses an index_map byte buffer into an IndexMap.
//
// Each line has the form `<column>.<section>.(startOffset|size) = <integer>`.
func Parse(data []byte) (*IndexMap, error) {
	partials := make(map[key]*partial)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := int64(0)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		rawKey, rawValue, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errs.NewParseErrorAt(errs.ErrIndexMapMalformed, artifactName, lineNo,
				"line is not of the form key=value: "+line)
		}
		rawKey = strings.TrimSpace(rawKey)
		rawValue = strings.TrimSpace(rawValue)

		column, section, field, err := splitKey(rawKey)
		if err != nil {
			return nil, errs.NewParseErrorAt(errs.ErrIndexMapMalformed, artifactName, lineNo, err.Error())
		}

		value, err := strconv.ParseInt(rawValue, 10, 64)
		if err != nil {
			return nil, errs.NewParseErrorAt(errs.ErrIndexMapMalformed, artifactName, lineNo,
				"value is not an integer: "+rawValue)
		}

		k := key{column: column, section: section}
		p, exists := partials[k]
		if !exists {
			p = &partial{}
			partials[k] = p
		}

		switch field {
		case "startOffset":
			if p.hasOffset {
				return nil, errs.NewParseErrorAt(errs.ErrIndexMapMalformed, artifactName, lineNo,
					"duplicate key: "+rawKey)
			}
			p.offset = value
			p.hasOffset = true
		case "size":
			if p.hasSize {
				return nil, errs.NewParseErrorAt(errs.ErrIndexMapMalformed, artifactName, lineNo,
					"duplicate key: "+rawKey)
			}
			p.size = value
			p.hasSize = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.NewParseError(errs.ErrIndexMapMalformed, artifactName, err.Error())
	}

	ranges := make(map[key]Range, len(partials))
	for k, p := range partials {
		if !p.hasOffset || !p.hasSize {
			return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, k.column,
				"incomplete offset/size pair for section "+string(k.section))
		}

		ranges[k] = Range{Offset: p.offset, Size: p.size}
	}

	return &IndexMap{ranges: ranges}, nil
}

func splitKey(rawKey string) (column string, section Section, field string, err error) {
	parts := strings.Split(rawKey, ".")
	if len(parts) < 3 {
		return "", "", "", errs.ErrIndexMapMalformed
	}

	field = parts[len(parts)-1]
	sectionToken := parts[len(parts)-2]
	column = strings.Join(parts[:len(parts)-2], ".")

	switch Section(sectionToken) {
	case Dictionary:
		section = Dictionary
	case ForwardIndex:
		section = ForwardIndex
	default:
		return "", "", "", errs.ErrIndexMapMalformed
	}

	if field != "startOffset" && field != "size" {
		return "", "", "", errs.ErrIndexMapMalformed
	}

	return column, section, field, nil
}
