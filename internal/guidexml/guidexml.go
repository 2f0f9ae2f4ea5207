// Package guidexml reads the variable declarations of a guide file.
//
// Variables are VARIABLE elements anywhere in the document:
//
//	<VARIABLE NAME="Client name" TYPE="Text" REPEATING="false" VALUE="" />
//
// Attribute names are matched without regard to case.
package guidexml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned for documents that are not well-formed XML.
var ErrMalformed = errors.New("malformed guide XML")

// Variable is one declared guide variable.
type Variable struct {
	Name      string
	Type      string
	Repeating bool
	Comment   string
	Value     string // default value, empty when none is declared
	HasValue  bool
}

// Parse returns the declared variables in document order. Elements without
// a NAME are skipped. An empty document yields no variables.
func Parse(r io.Reader) ([]Variable, error) {
	dec := xml.NewDecoder(r)

	var vars []Variable
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return vars, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "VARIABLE") {
			continue
		}
		if v, ok := variableOf(start); ok {
			vars = append(vars, v)
		}
	}
}

// ParseString is Parse over a string.
func ParseString(doc string) ([]Variable, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}
	return Parse(strings.NewReader(doc))
}

// ByName keys variables by lower-cased name. Later declarations win.
func ByName(vars []Variable) map[string]Variable {
	out := make(map[string]Variable, len(vars))
	for _, v := range vars {
		out[strings.ToLower(v.Name)] = v
	}
	return out
}

func variableOf(el xml.StartElement) (Variable, bool) {
	var v Variable
	for _, a := range el.Attr {
		switch strings.ToUpper(a.Name.Local) {
		case "NAME":
			v.Name = strings.TrimSpace(a.Value)
		case "TYPE":
			v.Type = a.Value
		case "REPEATING":
			v.Repeating, _ = strconv.ParseBool(a.Value)
		case "COMMENT":
			v.Comment = a.Value
		case "VALUE":
			v.Value = a.Value
			v.HasValue = true
		}
	}
	return v, v.Name != ""
}
