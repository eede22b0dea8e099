package utils

import (
	"time"
)

// SecsToTime converts an int64 of seconds from epoch to Time struct
func SecsToTime(ts int64) time.Time {
	return time.Unix(ts, 0)
}

// CurrentEpochSecsInInt64 returns the current UTC time in seconds from epoch
func CurrentEpochSecsInInt64() int64 {
	return time.Now().UTC().Unix()
}

// DescribeSyncTime formats a last sync timestamp for logging. 0 means the
// sync has never completed.
func DescribeSyncTime(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return SecsToTime(ts).UTC().Format(time.RFC3339)
}
