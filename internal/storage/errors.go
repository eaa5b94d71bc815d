package storage

import "github.com/gupfee/greenhaus/internal/domain"

// ErrNotFound is returned by Load when no snapshot exists under the key.
var ErrNotFound = domain.Errorf(domain.ENOTFOUND, "storage.load", "no cart snapshot stored under key")
