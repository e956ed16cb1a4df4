package geocode

import (
	"context"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var _ model.Locator = FixedLocator{}

// FixedLocator reports a position given up front, such as from command line
// flags. A nil At means the position is unknown.
type FixedLocator struct {
	At *model.Coordinates
}

func (l FixedLocator) Locate(ctx context.Context) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	if l.At == nil {
		return model.Coordinates{}, model.ErrLocationUnavailable
	}
	return *l.At, nil
}
