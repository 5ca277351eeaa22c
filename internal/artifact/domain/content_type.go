// Package domain defines the secure artifact entities and the content-type allow-list.
package domain

// ContentType is an allow-listed content type and the only extension a file
// of that type may be submitted under.
type ContentType struct {
	MIME      string
	Extension string
}

// Allow-listed content types. Anything not in AllowedContentTypes is rejected.
var (
	ContentTypePDF  = ContentType{MIME: "application/pdf", Extension: ".pdf"}
	ContentTypeXLS  = ContentType{MIME: "application/vnd.ms-excel", Extension: ".xls"}
	ContentTypeXLSX = ContentType{
		MIME:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension: ".xlsx",
	}
	ContentTypeCSV = ContentType{MIME: "text/csv", Extension: ".csv"}
	ContentTypeXML = ContentType{MIME: "application/xml", Extension: ".xml"}
)

// AllowedContentTypes is the exhaustive allow-list, checked in order.
var AllowedContentTypes = []ContentType{
	ContentTypePDF,
	ContentTypeXLS,
	ContentTypeXLSX,
	ContentTypeCSV,
	ContentTypeXML,
}

// ContentTypeByExtension returns the allow-listed type for a canonical extension.
func ContentTypeByExtension(ext string) (ContentType, bool) {
	for _, ct := range AllowedContentTypes {
		if ct.Extension == ext {
			return ct, true
		}
	}
	return ContentType{}, false
}
