package segment

import "errors"

// ErrInvalidPolicy indicates segment bounds that cannot be satisfied.
var ErrInvalidPolicy = errors.New("invalid segmentation policy")
