package cache

import "errors"

// ErrInvalidGeometry is returned when the cache parameters cannot describe a
// cache. No cache is created.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// ErrAddressOutOfRange is returned when an access uses an address wider than
// the address width. The access is rejected without changing any state.
var ErrAddressOutOfRange = errors.New("address out of range")
