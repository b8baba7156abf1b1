package model

import "errors"

// ErrNotFound é a sentinela compartilhada pelos drivers de storage.
var ErrNotFound = errors.New("not found")
