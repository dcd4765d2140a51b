package scan

import (
	"context"
	"errors"

	"github.com/JonMunkholm/sheetdocs/internal/logging"
)

// Chain tries its strategies in order and returns the first success.
type Chain struct {
	scanners []Scanner
}

// NewChain creates a chain over the given strategies. Nil entries are skipped.
func NewChain(scanners ...Scanner) *Chain {
	c := &Chain{}
	for _, s := range scanners {
		if s != nil {
			c.scanners = append(c.scanners, s)
		}
	}
	return c
}

// Name implements Scanner so chains can be nested.
func (c *Chain) Name() string { return "chain" }

// Names lists the strategies in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.scanners))
	for i, s := range c.scanners {
		names[i] = s.Name()
	}
	return names
}

// Scan runs each strategy until one succeeds. When all fail the returned
// *Error wraps every individual failure.
func (c *Chain) Scan(ctx context.Context, data []byte, kind string) (Fields, error) {
	if len(c.scanners) == 0 {
		return nil, &Error{Kind: kind, Err: ErrNoScanner}
	}
	if len(data) == 0 {
		return nil, &Error{Kind: kind, Err: ErrEmptyDocument}
	}

	logger := logging.FromContext(ctx)
	var errs []error
	for _, s := range c.scanners {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: kind, Err: err}
		}

		fields, err := s.Scan(ctx, data, kind)
		if err == nil {
			logger.Debug("scan: extracted fields", "scanner", s.Name(), "kind", kind, "fields", len(fields))
			return fields, nil
		}

		errs = append(errs, wrap(s, kind, err))
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		logger.Warn("scan: strategy failed, trying next", "scanner", s.Name(), "kind", kind, "error", err)
	}
	return nil, &Error{Kind: kind, Err: errors.Join(errs...)}
}
