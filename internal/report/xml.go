package report

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
)

// =============================================================================
// XML REPORT
// =============================================================================
//
// The XML report follows this structure:
//
//   <validationReport runId="..." source="users.csv" schema="users" valid="false" generated="...">
//     <summary records="2" findings="1"/>
//     <errors>
//       <error n="1" kind="required" row="2" column="3">Email is required in the 2 row / 3 column</error>
//     </errors>
//     <records>
//       <record n="1">
//         <field name="firstName">Vasyl</field>
//         <field name="roles">
//           <item>admin</item>
//           <item>manager</item>
//         </field>
//         <field name="age" nil="true"/>
//       </record>
//     </records>
//   </validationReport>
//
// Field names are attributes since input names are not always valid XML
// element names.

const xmlIndent = "  "

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// WriteXML writes the XML report for doc.
func WriteXML(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")

	var buffer bytes.Buffer
	writeElement(&buffer, buildDocument(doc), xmlIndent, 0)
	bw.Write(buffer.Bytes())

	return bw.Flush()
}

// buildDocument constructs the XML document structure.
func buildDocument(doc *Document) XMLElement {
	result := doc.Result
	if result == nil {
		result = &validator.Result{}
	}

	root := XMLElement{
		XMLName: xml.Name{Local: "validationReport"},
		Attributes: []xml.Attr{
			attr("runId", doc.RunID),
			attr("source", doc.Source),
			attr("schema", doc.Schema),
			attr("valid", strconv.FormatBool(doc.Valid)),
			attr("generated", doc.GeneratedAt.Format(time.RFC3339)),
		},
	}

	root.Children = append(root.Children, XMLElement{
		XMLName: xml.Name{Local: "summary"},
		Attributes: []xml.Attr{
			attr("records", strconv.Itoa(len(result.Data))),
			attr("findings", strconv.Itoa(len(result.Errors))),
		},
	})

	errorsElement := XMLElement{XMLName: xml.Name{Local: "errors"}}
	for i, finding := range result.Errors {
		errorsElement.Children = append(errorsElement.Children, buildErrorElement(i+1, finding))
	}
	root.Children = append(root.Children, errorsElement)

	recordsElement := XMLElement{XMLName: xml.Name{Local: "records"}}
	for i, record := range result.Data {
		recordsElement.Children = append(recordsElement.Children, buildRecordElement(doc, i+1, record))
	}
	root.Children = append(root.Children, recordsElement)

	return root
}

// buildErrorElement renders one finding. Absent row and column indices are
// left out.
func buildErrorElement(n int, finding validator.Finding) XMLElement {
	element := XMLElement{
		XMLName: xml.Name{Local: "error"},
		Attributes: []xml.Attr{
			attr("n", strconv.Itoa(n)),
			attr("kind", string(finding.Kind)),
		},
		Value: finding.Message,
	}
	if finding.RowIndex != 0 {
		element.Attributes = append(element.Attributes, attr("row", strconv.Itoa(finding.RowIndex)))
	}
	if finding.ColumnIndex != "" {
		element.Attributes = append(element.Attributes, attr("column", finding.ColumnIndex))
	}
	return element
}

// buildRecordElement renders one projected record in column order.
func buildRecordElement(doc *Document, n int, record validator.Record) XMLElement {
	element := XMLElement{
		XMLName:    xml.Name{Local: "record"},
		Attributes: []xml.Attr{attr("n", strconv.Itoa(n))},
	}

	for _, name := range doc.fieldOrder(record) {
		field := XMLElement{
			XMLName:    xml.Name{Local: "field"},
			Attributes: []xml.Attr{attr("name", name)},
		}

		switch v := record[name].(type) {
		case nil:
			field.Attributes = append(field.Attributes, attr("nil", "true"))
		case []string:
			for _, item := range v {
				field.Children = append(field.Children, XMLElement{
					XMLName: xml.Name{Local: "item"},
					Value:   item,
				})
			}
		default:
			field.Value = formatValue(v)
		}

		element.Children = append(element.Children, field)
	}

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// formatValue renders a projected scalar.
func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, a := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", a.Name.Local, escapeXML(a.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Characters not allowed in
// XML 1.0 are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t', '\n', '\r':
			buffer.WriteRune(r)
		default:
			if r < 0x20 || r == 0xFFFE || r == 0xFFFF {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
