// =============================================================================
// dailyworker - XML Writer Module
// =============================================================================
//
// This module renders selected workers into the ÁNYK employment registration
// declaration (form T1042E). The document layout and the field codes are
// fixed by the tax authority's schema.
//
// XML STRUCTURE:
//
//   <nyomtatvanyok xmlns="http://www.apeh.hu/abev/nyomtatvanyok/2005/01">
//     <nyomtatvany>
//       <nyomtatvanyinformacio>              <!-- form metadata -->
//         <nyomtatvanyazonosito>24T1042E</nyomtatvanyazonosito>
//         <nyomtatvanyverzio>1.0</nyomtatvanyverzio>
//         <adozo><adoszam>...</adoszam></adozo>
//         <megjegyzes>Bejelentés</megjegyzes>
//       </nyomtatvanyinformacio>
//       <mezok>
//         <mezo eazon="0A0001C0001AA">...</mezo>   <!-- taxpayer block -->
//         <mezo eazon="0B0001C0001AA">...</mezo>   <!-- worker 1, field 1 -->
//         ...
//       </mezok>
//     </nyomtatvany>
//   </nyomtatvanyok>
//
// FIELD CODES:
//   Worker fields are addressed by position: "0B" + 4-digit worker index +
//   field suffix. Worker 1 name is 0B0001C0001AA, worker 23 name is
//   0B0023C0001AA.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/mezeipetister/dailyworker/internal/types"
)

// =============================================================================
// FORM CONSTANTS
// =============================================================================

const (
	// Namespace is the namespace of every ÁNYK form document.
	Namespace = "http://www.apeh.hu/abev/nyomtatvanyok/2005/01"

	// MaxWorkers is the largest index the 4-digit field codes can address.
	MaxWorkers = 9999

	// RecordTypeNew marks a new registration ("Új bejelentés").
	RecordTypeNew = "U"

	// RecordSubType is the registration sub-type.
	RecordSubType = "03"

	// ValidityPeriod is the validity period marker.
	ValidityPeriod = "1"

	// ReportDateLayout is the layout of the report date field.
	ReportDateLayout = "20060102"
)

// Field codes of the taxpayer block.
const (
	TaxpayerTaxNumberCode = "0A0001C0001AA"
	TaxpayerNameCode      = "0A0001E001A"
	TaxpayerPhoneCode     = "0A0001E002A"
)

// Field code suffixes of a worker block, in emission order.
const (
	NameSuffix           = "C0001AA"
	TaxNumberSuffix      = "C0002AA"
	HealthIDSuffix       = "C0003AA"
	RecordTypeSuffix     = "D0005AA"
	RecordSubTypeSuffix  = "D0007AA"
	RecordIDSuffix       = "A001A"
	ValidityPeriodSuffix = "D0009AA"
	ReportDateSuffix     = "D0008AA"
)

// FieldsPerWorker is the number of fields emitted for every worker.
const FieldsPerWorker = 8

// =============================================================================
// HEADER
// =============================================================================

// Header holds the form metadata and the identity of the submitting
// taxpayer (the employer).
type Header struct {
	// FormCode is appended to the two-digit year to form the form identifier.
	// Default: "T1042E"
	FormCode string

	// FormVersion is the version of the form.
	// Default: "1.0"
	FormVersion string

	// Remark is the free-text note of the form.
	// Default: "Bejelentés"
	Remark string

	TaxpayerTaxNumber string
	TaxpayerName      string
	TaxpayerPhone     string
}

// DefaultHeader returns the form defaults with an empty taxpayer identity.
func DefaultHeader() Header {
	return Header{
		FormCode:    "T1042E",
		FormVersion: "1.0",
		Remark:      "Bejelentés",
	}
}

// FormID returns the form identifier for the given time, e.g. "24T1042E".
func (h Header) FormID(now time.Time) string {
	return now.Format("06") + h.FormCode
}

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Render creates the declaration document for workers. The caller passes the
// workers already filtered to the ones to declare; nothing is validated here.
//
// PARAMETERS:
//   - workers: The workers to declare, in declaration order.
//   - header: The form metadata and taxpayer identity.
//   - now: The render time. It determines the form year and the report date.
//
// RETURNS:
//   - The XML document. The same input and time always give the same bytes.
//   - An error if there are more workers than the field codes can address.
func Render(workers []types.Worker, header Header, now time.Time) ([]byte, error) {
	return RenderWithOptions(workers, header, now, DefaultGenerateOptions())
}

// RenderWithOptions creates the declaration document with custom options.
func RenderWithOptions(workers []types.Worker, header Header, now time.Time, options GenerateOptions) ([]byte, error) {
	if len(workers) > MaxWorkers {
		return nil, fmt.Errorf("cannot declare %d workers in one form (max %d)", len(workers), MaxWorkers)
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	doc := buildDocument(workers, header, now)
	writeElement(&buffer, doc, options.Indent, 0)

	return buffer.Bytes(), nil
}

// FieldCode returns the positional code of a worker field.
//
// EXAMPLE:
//
//	FieldCode(23, NameSuffix) == "0B0023C0001AA"
func FieldCode(index int, suffix string) string {
	return fmt.Sprintf("0B%04d%s", index, suffix)
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument constructs the document tree.
func buildDocument(workers []types.Worker, header Header, now time.Time) XMLElement {
	info := XMLElement{
		XMLName: xml.Name{Local: "nyomtatvanyinformacio"},
		Children: []XMLElement{
			createSimpleElement("nyomtatvanyazonosito", header.FormID(now)),
			createSimpleElement("nyomtatvanyverzio", header.FormVersion),
			{
				XMLName:  xml.Name{Local: "adozo"},
				Children: []XMLElement{createSimpleElement("adoszam", header.TaxpayerTaxNumber)},
			},
			createSimpleElement("megjegyzes", header.Remark),
		},
	}

	fields := XMLElement{XMLName: xml.Name{Local: "mezok"}}
	fields.Children = append(fields.Children,
		createField(TaxpayerTaxNumberCode, header.TaxpayerTaxNumber),
		createField(TaxpayerNameCode, header.TaxpayerName),
		createField(TaxpayerPhoneCode, header.TaxpayerPhone),
	)

	reportDate := now.Format(ReportDateLayout)
	for i, worker := range workers {
		fields.Children = append(fields.Children, buildWorkerFields(i+1, worker, reportDate)...)
	}

	return XMLElement{
		XMLName: xml.Name{Local: "nyomtatvanyok"},
		Attributes: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: Namespace},
		},
		Children: []XMLElement{
			{
				XMLName:  xml.Name{Local: "nyomtatvany"},
				Children: []XMLElement{info, fields},
			},
		},
	}
}

// buildWorkerFields returns the eight fields of the worker at index
// (1-based). The TAJ number is emitted as stored, without padding.
func buildWorkerFields(index int, worker types.Worker, reportDate string) []XMLElement {
	return []XMLElement{
		createField(FieldCode(index, NameSuffix), worker.Name),
		createField(FieldCode(index, TaxNumberSuffix), worker.TaxNumber),
		createField(FieldCode(index, HealthIDSuffix), worker.NationalHealthID),
		createField(FieldCode(index, RecordTypeSuffix), RecordTypeNew),
		createField(FieldCode(index, RecordSubTypeSuffix), RecordSubType),
		createField(FieldCode(index, RecordIDSuffix), strconv.Itoa(index)),
		createField(FieldCode(index, ValidityPeriodSuffix), ValidityPeriod),
		createField(FieldCode(index, ReportDateSuffix), reportDate),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// createField creates a <mezo eazon="code"> element.
func createField(code, value string) XMLElement {
	return XMLElement{
		XMLName:    xml.Name{Local: "mezo"},
		Attributes: []xml.Attr{{Name: xml.Name{Local: "eazon"}, Value: code}},
		Value:      value,
	}
}

// writeElement writes an XML element to the buffer with indentation. Leaf
// elements always get an explicit closing tag, so empty values render as
// <mezo eazon="..."></mezo>.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	writeIndent(buffer, indent, level)

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value)))
	}
	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		writeIndent(buffer, indent, level)
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// escapeXML escapes special characters for XML. Code points XML 1.0 does
// not allow, such as control characters, are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		if !isXMLChar(r) {
			continue
		}
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
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
