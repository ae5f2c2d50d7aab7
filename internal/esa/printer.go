package esa

import (
	"context"
	"fmt"
	"io"

	"github.com/user/nikki/internal/types"
)

// Printer is a types.Publisher that writes documents to w instead of
// posting them. Used for dry runs.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Publish(_ context.Context, doc types.Document) (*types.Published, error) {
	if _, err := fmt.Fprintf(p.w, "name: %s\nwip: %t\n\n%s", doc.Name, doc.WIP, doc.BodyMD); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return &types.Published{}, nil
}
