package clock

import "time"

// Clock reports wall time. A nil Now uses time.Now.
type Clock struct {
	Now func() time.Time
}

// NowUnix returns current unix seconds.
func (c Clock) NowUnix() int64 {
	if c.Now != nil {
		return c.Now().Unix()
	}
	return time.Now().Unix()
}
