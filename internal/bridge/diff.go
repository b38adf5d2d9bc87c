package bridge

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// maxPreviewLen bounds the change preview carried in an edit action.
const maxPreviewLen = 2000

// editPreview renders the change an edit tool proposes into a short
// +/- preview for display alongside the approval prompt. With no
// new_string to compare against, the old text is shown as-is.
func editPreview(input types.Value) string {
	oldText := input.Field("old_string").Str()
	newText := input.Field("new_string").Str()

	if newText == "" {
		return truncatePreview(oldText)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("-")
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+")
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}
	return truncatePreview(sb.String())
}

func truncatePreview(s string) string {
	if len(s) <= maxPreviewLen {
		return s
	}
	return s[:maxPreviewLen] + "…"
}
