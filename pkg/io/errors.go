package io

import "errors"

// ErrTrailingBytes is returned when a decoder leaves unread data in the buffer.
var ErrTrailingBytes = errors.New("trailing bytes after decoding")
