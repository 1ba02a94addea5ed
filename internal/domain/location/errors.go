package location

import "errors"

var ErrOfficeLocationNotFound = errors.New("office location not found")
