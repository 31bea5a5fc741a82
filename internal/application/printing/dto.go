package printing

import "fmt"

// Document is a rendered PDF ready for download
type Document struct {
	Filename string
	Content  []byte
}

// ContentType is the MIME type of every rendered document
const ContentType = "application/pdf"

// ContentDisposition returns the header value offering the document as a download
func (d *Document) ContentDisposition() string {
	return fmt.Sprintf(`attachment; filename="%s"`, d.Filename)
}

func filename(kind, number string) string {
	if number == "" {
		number = "draft"
	}
	return fmt.Sprintf("%s-%s.pdf", kind, number)
}
