package models

import "fmt"

// Content item discriminators accepted on /content.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeTable    = "table"
	ContentTypeEquation = "equation"
)

// ContentItem is one pre-parsed element of a document. The Type field
// selects which of the remaining fields are meaningful; unknown types are
// rejected up front rather than silently dropped.
type ContentItem struct {
	Type          string   `json:"type"`
	Text          string   `json:"text,omitempty"`
	ImgPath       string   `json:"img_path,omitempty"`
	ImgCaption    []string `json:"img_caption,omitempty"`
	ImgFootnote   []string `json:"img_footnote,omitempty"`
	TableBody     string   `json:"table_body,omitempty"`
	TableCaption  []string `json:"table_caption,omitempty"`
	TableFootnote []string `json:"table_footnote,omitempty"`
	Latex         string   `json:"latex,omitempty"`
	PageIdx       int      `json:"page_idx"`
}

// Validate checks the discriminator and the presence of the fields the
// selected variant requires.
func (it *ContentItem) Validate() error {
	switch it.Type {
	case ContentTypeText:
		if it.Text == "" {
			return fmt.Errorf("content item: text type requires text field")
		}
	case ContentTypeImage:
		if it.ImgPath == "" && len(it.ImgCaption) == 0 {
			return fmt.Errorf("content item: image type requires img_path or img_caption")
		}
	case ContentTypeTable:
		if it.TableBody == "" {
			return fmt.Errorf("content item: table type requires table_body")
		}
	case ContentTypeEquation:
		if it.Latex == "" && it.Text == "" {
			return fmt.Errorf("content item: equation type requires latex or text")
		}
	case "":
		return fmt.Errorf("content item: type is required")
	default:
		return fmt.Errorf("content item: unknown type %q", it.Type)
	}
	return nil
}

// MultimodalItem is an inline context element attached to a query.
type MultimodalItem struct {
	Type            string `json:"type"`
	TableData       string `json:"table_data,omitempty"`
	TableCaption    string `json:"table_caption,omitempty"`
	Latex           string `json:"latex,omitempty"`
	EquationCaption string `json:"equation_caption,omitempty"`
	ImageData       string `json:"image_data,omitempty"`
	ImageCaption    string `json:"image_caption,omitempty"`
}

// Validate checks the discriminator for a multimodal query item. Text is
// not a valid type here, the query string itself carries the text.
func (it *MultimodalItem) Validate() error {
	switch it.Type {
	case ContentTypeTable:
		if it.TableData == "" {
			return fmt.Errorf("multimodal item: table type requires table_data")
		}
	case ContentTypeEquation:
		if it.Latex == "" {
			return fmt.Errorf("multimodal item: equation type requires latex")
		}
	case ContentTypeImage:
		if it.ImageData == "" && it.ImageCaption == "" {
			return fmt.Errorf("multimodal item: image type requires image_data or image_caption")
		}
	case "":
		return fmt.Errorf("multimodal item: type is required")
	default:
		return fmt.Errorf("multimodal item: unknown type %q", it.Type)
	}
	return nil
}
