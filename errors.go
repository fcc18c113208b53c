package upfirdn

import (
	"github.com/tphakala/go-upfirdn/internal/engine"
	"github.com/tphakala/go-upfirdn/internal/ndarray"
)

// Common errors returned by the resampler and the bank. They are the same
// values the internal layers wrap, so errors.Is works on any returned error.
var (
	// ErrInvalidParameter indicates a non-positive rate, an empty filter, a
	// nil array or a sample type the resampler was not built for.
	ErrInvalidParameter = engine.ErrInvalidParameter

	// ErrBufferTooSmall indicates the output buffer is smaller than
	// NeededOutCount for the given input.
	ErrBufferTooSmall = engine.ErrBufferTooSmall

	// ErrIncompatibleShapes indicates non-sample axes that cannot be
	// broadcast together.
	ErrIncompatibleShapes = ndarray.ErrIncompatibleShapes

	// ErrAxisOutOfRange indicates an xdim or hdim outside [-ndim, ndim).
	ErrAxisOutOfRange = ndarray.ErrAxisOutOfRange

	// ErrInvalidShape indicates array data that does not match its shape.
	ErrInvalidShape = ndarray.ErrInvalidShape
)
