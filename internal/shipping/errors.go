package shipping

import "github.com/gupfee/greenhaus/internal/domain"

var (
	// ErrUnknownTier is returned when the requested tier is not in the
	// configured rule table. This indicates a caller or config bug rather
	// than a user-correctable condition.
	ErrUnknownTier = domain.ErrUnknownTier

	// ErrNoTiers is returned when a resolver is constructed with an empty
	// rule table.
	ErrNoTiers = domain.Errorf(domain.EINVALID, "shipping.flatrate", "at least one shipping tier must be configured")
)
