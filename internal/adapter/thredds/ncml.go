package thredds

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
)

// Raw NcML XML as served by the THREDDS NcML service.
type ncmlDoc struct {
	XMLName    xml.Name        `xml:"netcdf"`
	Attributes []ncmlAttribute `xml:"attribute"`
	Dimensions []ncmlDimension `xml:"dimension"`
	Variables  []ncmlVariable  `xml:"variable"`
	Groups     []ncmlGroup     `xml:"group"`
}

type ncmlAttribute struct {
	Name      string `xml:"name,attr"`
	Type      string `xml:"type,attr"`
	Value     string `xml:"value,attr"`
	Separator string `xml:"separator,attr"`
}

type ncmlDimension struct {
	Name   string `xml:"name,attr"`
	Length int    `xml:"length,attr"`
}

type ncmlVariable struct {
	Name       string          `xml:"name,attr"`
	Shape      string          `xml:"shape,attr"`
	Type       string          `xml:"type,attr"`
	Attributes []ncmlAttribute `xml:"attribute"`
}

type ncmlGroup struct {
	Name       string          `xml:"name,attr"`
	Attributes []ncmlAttribute `xml:"attribute"`
}

// ParseNcML converts one NcML document into an attribute bundle. Access URLs
// are a catalog concern and are left for the caller to fill in.
func ParseNcML(data []byte) (*ncmeta.Bundle, error) {
	var doc ncmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse NcML: %w", err)
	}

	b := &ncmeta.Bundle{
		Attributes: attributeMap(doc.Attributes),
		Dimensions: make(map[string]int, len(doc.Dimensions)),
		Variables:  make(map[string]ncmeta.Variable, len(doc.Variables)),
		Groups:     make(map[string]ncmeta.Group, len(doc.Groups)),
		AccessURLs: map[string]string{},
	}
	for _, d := range doc.Dimensions {
		b.Dimensions[d.Name] = d.Length
	}
	for _, v := range doc.Variables {
		b.Variables[v.Name] = ncmeta.Variable{
			Type:       v.Type,
			Shape:      strings.Fields(v.Shape),
			Attributes: attributeMap(v.Attributes),
		}
	}
	for _, g := range doc.Groups {
		b.Groups[g.Name] = ncmeta.Group{Attributes: attributeMap(g.Attributes)}
	}
	return b, nil
}

func attributeMap(attrs []ncmlAttribute) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[a.Name] = attributeValue(a)
	}
	return m
}

// attributeValue decodes one NcML attribute. Numeric types come back as
// float64, multi-valued attributes as a slice, everything else as the raw
// string.
func attributeValue(a ncmlAttribute) any {
	if !numericNcmlType(a.Type) {
		return a.Value
	}
	sep := a.Separator
	if sep == "" {
		sep = " "
	}
	fields := strings.FieldsFunc(a.Value, func(r rune) bool {
		return strings.ContainsRune(sep, r)
	})
	values := make([]any, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return a.Value
		}
		values = append(values, n)
	}
	switch len(values) {
	case 0:
		return a.Value
	case 1:
		return values[0]
	default:
		return values
	}
}

func numericNcmlType(t string) bool {
	switch strings.ToLower(t) {
	case "byte", "short", "int", "long", "float", "double",
		"ubyte", "ushort", "uint", "ulong":
		return true
	}
	return false
}
