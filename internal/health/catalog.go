package health

import (
	"context"
	"fmt"

	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

// catalogProbe is a value that survives a format/parse round trip at
// every catalog rate.
const catalogProbe = "01:02:03:04.05"

// CatalogChecker verifies that the frame rate catalog resolves every rate
// in both directions and that the codec round-trips a probe value.
type CatalogChecker struct{}

// NewCatalogChecker creates a catalog checker.
func NewCatalogChecker() *CatalogChecker {
	return &CatalogChecker{}
}

// Name returns the name of the checker.
func (c *CatalogChecker) Name() string {
	return "catalog"
}

// Check walks the catalog.
func (c *CatalogChecker) Check(ctx context.Context) error {
	for _, r := range fps.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if got := fps.FromString(r.String()); got != r {
			return fmt.Errorf("rate %s resolves to %s by name", r, got)
		}
		if r.IsDropFrame() && fps.FromDropFrame(true) != r {
			return fmt.Errorf("drop-frame rate %s is not the drop-frame entry", r)
		}

		tc, err := timecode.Parse(catalogProbe, timecode.WithRate(r))
		if err != nil {
			return fmt.Errorf("parse probe at %s: %w", r, err)
		}
		back, err := timecode.Parse(tc.String(), timecode.WithRate(r))
		if err != nil {
			return fmt.Errorf("reparse probe at %s: %w", r, err)
		}
		if !back.Equal(tc) {
			return fmt.Errorf("probe at %s does not round-trip: %s != %s", r, back, tc)
		}
	}
	return nil
}

// Details implements DetailReporter.
func (c *CatalogChecker) Details() map[string]interface{} {
	return map[string]interface{}{
		"rates":   len(fps.All()),
		"default": fps.Default().String(),
	}
}
