// Package compose renders bucketed messages into the daily log document.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/nikki/internal/types"
	"github.com/user/nikki/internal/window"
)

const namePrefix = "nikki/"

// ErrNoBuckets is returned by Compose when no message fell inside the window.
var ErrNoBuckets = errors.New("no messages to compose")

// Name returns the document name for the target day, e.g. "nikki/2024/03/14".
func Name(target window.Target) string {
	return namePrefix + target.Start().Format("2006/01/02")
}

// Body renders one "## HH時" section per non-empty hour in ascending order,
// each followed by the hour's texts as a bulleted list. Sections are
// separated by a blank line.
func Body(b *window.Buckets) string {
	var sb strings.Builder
	for i, h := range b.Hours() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %02d時\n\n", h.Hour)
		for _, text := range h.Texts {
			sb.WriteString("- ")
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Compose builds the document for target from b.
func Compose(target window.Target, b *window.Buckets) (types.Document, error) {
	if b == nil || b.Empty() {
		return types.Document{}, ErrNoBuckets
	}
	return types.Document{
		Name:   Name(target),
		BodyMD: Body(b),
		WIP:    false,
	}, nil
}
