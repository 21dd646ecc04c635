package rag

import (
	"fmt"
	"strings"

	"raggate/internal/models"
)

// renderContent flattens one content-list item into indexable text.
// Disabled modalities yield an empty string so the rest of the list still
// indexes; the item was validated upstream.
func (e *Engine) renderContent(it *models.ContentItem) (string, error) {
	if err := it.Validate(); err != nil {
		return "", err
	}
	switch it.Type {
	case models.ContentTypeText:
		return it.Text, nil
	case models.ContentTypeImage:
		if !e.cfg.EnableImages {
			return "", nil
		}
		var sb strings.Builder
		if len(it.ImgCaption) > 0 {
			fmt.Fprintf(&sb, "Image: %s", strings.Join(it.ImgCaption, "; "))
		} else {
			fmt.Fprintf(&sb, "Image: %s", it.ImgPath)
		}
		if len(it.ImgFootnote) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(it.ImgFootnote, "; "))
		}
		return sb.String(), nil
	case models.ContentTypeTable:
		if !e.cfg.EnableTables {
			return "", nil
		}
		var sb strings.Builder
		if len(it.TableCaption) > 0 {
			fmt.Fprintf(&sb, "Table (%s):\n", strings.Join(it.TableCaption, "; "))
		} else {
			sb.WriteString("Table:\n")
		}
		sb.WriteString(it.TableBody)
		if len(it.TableFootnote) > 0 {
			fmt.Fprintf(&sb, "\n%s", strings.Join(it.TableFootnote, "; "))
		}
		return sb.String(), nil
	case models.ContentTypeEquation:
		if !e.cfg.EnableEquations {
			return "", nil
		}
		if it.Text != "" {
			return fmt.Sprintf("Equation: %s (%s)", it.Latex, it.Text), nil
		}
		return fmt.Sprintf("Equation: %s", it.Latex), nil
	}
	return "", nil
}

// renderMultimodal formats one query-attached item into a prompt context
// block. Items of a disabled modality are rejected rather than silently
// ignored, the caller asked for them explicitly.
func (e *Engine) renderMultimodal(it *models.MultimodalItem) (string, error) {
	if err := it.Validate(); err != nil {
		return "", err
	}
	switch it.Type {
	case models.ContentTypeTable:
		if !e.cfg.EnableTables {
			return "", fmt.Errorf("table processing is disabled")
		}
		if it.TableCaption != "" {
			return fmt.Sprintf("Table (%s):\n%s", it.TableCaption, it.TableData), nil
		}
		return fmt.Sprintf("Table:\n%s", it.TableData), nil
	case models.ContentTypeEquation:
		if !e.cfg.EnableEquations {
			return "", fmt.Errorf("equation processing is disabled")
		}
		if it.EquationCaption != "" {
			return fmt.Sprintf("Equation (%s): %s", it.EquationCaption, it.Latex), nil
		}
		return fmt.Sprintf("Equation: %s", it.Latex), nil
	case models.ContentTypeImage:
		if !e.cfg.EnableImages {
			return "", fmt.Errorf("image processing is disabled")
		}
		if it.ImageCaption != "" {
			return fmt.Sprintf("Image (%s): %s", it.ImageCaption, truncate(it.ImageData, 256)), nil
		}
		return fmt.Sprintf("Image: %s", truncate(it.ImageData, 256)), nil
	}
	return "", nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
