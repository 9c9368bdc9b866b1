package repository

import (
	"context"

	"github.com/hayatoa/threads-auto-post-gs/domain/model"
)

// IRowStore defines the interface for the tabular row store backing the
// posting queue. Implementations own row identity (the 1-based sheet
// index); callers must re-read rows before acting on them.
type IRowStore interface {
	// EnsureHeader returns the ordered header, guaranteeing every
	// required column is present (missing ones are appended, existing
	// order and extra columns preserved).
	EnsureHeader(ctx context.Context) ([]string, error)

	// ReadRows returns every data row keyed by the given header, in
	// ascending sheet order. Missing cells default to "".
	ReadRows(ctx context.Context, header []string) ([]model.PostRow, error)

	// WriteResult records one row's outcome: the status cell is always
	// written, posted_at is set to the current timestamp only for
	// StatusPosted, and error holds the (truncated) message only for
	// StatusFailed.
	WriteResult(ctx context.Context, rowIdx int, status string, errMsg string) error
}
