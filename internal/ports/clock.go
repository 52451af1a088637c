package ports

import "time"

// Clock supplies the current time for betting deadlines.
type Clock interface {
	Now() time.Time
}
