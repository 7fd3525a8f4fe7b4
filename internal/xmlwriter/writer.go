// =============================================================================
// Inventory Import - XML Writer Module
// =============================================================================
//
// This module renders consolidated groups as an XML document.
//
// XML STRUCTURE:
//
//   <inventory catalog="g4it" source="parc.csv" session="..." generated="...">
//     <group n="1" key="Dell X280 / Ordinateur">
//       <modele>Dell X280</modele>              <!-- catalog order -->
//       <quantite>5</quantite>                  <!-- the aggregate -->
//       <type>Ordinateur</type>
//       <statut>En service</statut>
//       <originalIds>
//         <id>1</id>
//         <id>4</id>
//       </originalIds>
//     </group>
//   </inventory>
//
// Field keys become element names. Characters that are not allowed in an
// XML name are replaced by "_".
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Meta describes where a document comes from.
type Meta struct {
	Catalog     types.Catalog
	SourceFile  string
	SessionID   string
	GeneratedAt time.Time
}

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement is the name of the document element.
	// Default: "inventory"
	RootElement string

	// GroupElement is the name of the element of each group.
	// Default: "group"
	GroupElement string

	// IncludeEmptyFields writes optional fields that have no value.
	// Default: false
	IncludeEmptyFields bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "inventory",
		GroupElement:          "group",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML document from consolidated groups.
//
// PARAMETERS:
//   - groups: The consolidated groups, in output order.
//   - meta: The catalog and provenance of the document.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if generation fails.
func Generate(groups []types.ConsolidatedGroup, meta Meta) ([]byte, error) {
	return GenerateWithOptions(groups, meta, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML document with custom options.
func GenerateWithOptions(groups []types.ConsolidatedGroup, meta Meta, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	root := buildDocument(groups, meta, options)
	if err := writeElement(&buffer, root, options.Indent, 0); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	Name       string
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument constructs the XML document structure.
func buildDocument(groups []types.ConsolidatedGroup, meta Meta, options GenerateOptions) XMLElement {
	root := XMLElement{Name: options.RootElement}

	addAttr(&root, "catalog", meta.Catalog.Name)
	addAttr(&root, "source", meta.SourceFile)
	addAttr(&root, "session", meta.SessionID)
	if !meta.GeneratedAt.IsZero() {
		addAttr(&root, "generated", meta.GeneratedAt.Format(time.RFC3339))
	}
	addAttr(&root, "groups", strconv.Itoa(len(groups)))

	for i, group := range groups {
		root.Children = append(root.Children, buildGroupElement(i+1, group, meta.Catalog, options))
	}

	return root
}

// buildGroupElement constructs one group element.
//
// STRUCTURE:
//
//	<group n="1" key="...">
//	  <field>value</field>   (catalog order)
//	  <originalIds><id>1</id>...</originalIds>
//	</group>
func buildGroupElement(n int, group types.ConsolidatedGroup, catalog types.Catalog, options GenerateOptions) XMLElement {
	element := XMLElement{Name: options.GroupElement}
	addAttr(&element, "n", strconv.Itoa(n))
	addAttr(&element, "key", group.KeyString())

	written := make(map[types.FieldKey]bool, len(group.Fields))
	for _, spec := range catalog.Fields {
		v, ok := group.Fields[spec.Key]
		written[spec.Key] = true
		if !ok || v.IsEmpty() {
			if !spec.Required && !options.IncludeEmptyFields {
				continue
			}
		}
		element.Children = append(element.Children, createSimpleElement(string(spec.Key), v.String()))
	}

	// Fields outside the catalog (a custom quantity field, say) come last.
	for _, key := range sortedExtraKeys(group.Fields, written) {
		element.Children = append(element.Children, createSimpleElement(string(key), group.Fields[key].String()))
	}

	ids := XMLElement{Name: "originalIds"}
	for _, id := range group.OriginalIDs {
		ids.Children = append(ids.Children, createSimpleElement("id", strconv.Itoa(id)))
	}
	element.Children = append(element.Children, ids)

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		Name:  ElementName(name),
		Value: value,
	}
}

func addAttr(element *XMLElement, name, value string) {
	if value == "" {
		return
	}
	element.Attributes = append(element.Attributes, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func sortedExtraKeys(fields map[types.FieldKey]types.Value, written map[types.FieldKey]bool) []types.FieldKey {
	var keys []types.FieldKey
	for k := range fields {
		if !written[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ElementName turns a field key into a valid XML element name.
func ElementName(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
			b.WriteRune(r)
		case i == 0 && unicode.IsDigit(r):
			b.WriteRune('_')
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) error {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	for _, attr := range element.Attributes {
		buffer.WriteString(" ")
		buffer.WriteString(attr.Name.Local)
		buffer.WriteString(`="`)
		if err := xml.EscapeText(buffer, []byte(attr.Value)); err != nil {
			return err
		}
		buffer.WriteString(`"`)
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		if err := xml.EscapeText(buffer, []byte(element.Value)); err != nil {
			return err
		}
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			if err := writeElement(buffer, child, indent, level+1); err != nil {
				return err
			}
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
	return nil
}

// =============================================================================
// XSD GENERATION (AUTO-GENERATE FROM CATALOG)
// =============================================================================

// GenerateXSD creates an XSD schema describing the documents Generate
// produces for catalog.
func GenerateXSD(catalog types.Catalog) ([]byte, error) {
	options := DefaultGenerateOptions()
	var buffer bytes.Buffer

	buffer.WriteString(xml.Header)
	buffer.WriteString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="catalog" type="xs:string"/>
      <xs:attribute name="source" type="xs:string"/>
      <xs:attribute name="session" type="xs:string"/>
      <xs:attribute name="generated" type="xs:dateTime"/>
      <xs:attribute name="groups" type="xs:nonNegativeInteger"/>
    </xs:complexType>
  </xs:element>

`, options.RootElement, options.GroupElement)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, options.GroupElement)

	for _, spec := range catalog.Fields {
		writeXSDElement(&buffer, spec, 4)
	}

	buffer.WriteString(`        <xs:element name="originalIds">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="id" type="xs:positiveInteger" maxOccurs="unbounded"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
      <xs:attribute name="n" type="xs:positiveInteger" use="required"/>
      <xs:attribute name="key" type="xs:string"/>
    </xs:complexType>
  </xs:element>

</xs:schema>
`)

	return buffer.Bytes(), nil
}

// writeXSDElement writes an XSD element definition.
func writeXSDElement(buffer *bytes.Buffer, spec types.FieldSpec, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)

	minOccurs := "0"
	if spec.Required {
		minOccurs = "1"
	}

	name := ElementName(string(spec.Key))
	xsdType := getXSDType(spec.EffectiveType())

	if spec.EffectiveType() == types.TypeNumber && (spec.Min != nil || spec.Max != nil) {
		fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" minOccurs=\"%s\">\n", indent, name, minOccurs)
		fmt.Fprintf(buffer, "%s  <xs:simpleType>\n", indent)
		fmt.Fprintf(buffer, "%s    <xs:restriction base=\"%s\">\n", indent, xsdType)
		if spec.Min != nil {
			fmt.Fprintf(buffer, "%s      <xs:minInclusive value=\"%s\"/>\n", indent, strconv.FormatFloat(*spec.Min, 'f', -1, 64))
		}
		if spec.Max != nil {
			fmt.Fprintf(buffer, "%s      <xs:maxInclusive value=\"%s\"/>\n", indent, strconv.FormatFloat(*spec.Max, 'f', -1, 64))
		}
		fmt.Fprintf(buffer, "%s    </xs:restriction>\n", indent)
		fmt.Fprintf(buffer, "%s  </xs:simpleType>\n", indent)
		fmt.Fprintf(buffer, "%s</xs:element>\n", indent)
		return
	}

	fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" type=\"%s\" minOccurs=\"%s\"/>\n", indent, name, xsdType, minOccurs)
}

// getXSDType maps field types to XSD types.
func getXSDType(t types.ValueType) string {
	switch t {
	case types.TypeNumber:
		return "xs:decimal"
	case types.TypeDate:
		return "xs:date"
	default:
		return "xs:string"
	}
}
