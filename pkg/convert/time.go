package convert

import "time"

// windowsToUnixEpoch is the number of 100ns intervals between 1601-01-01 and 1970-01-01.
const windowsToUnixEpoch = 116444736000000000

// WinTimeToTime converts a FILETIME value. ok is false for a zero timestamp.
func WinTimeToTime(wintime uint64) (t time.Time, ok bool) {
	if wintime == 0 {
		return
	}
	ticks := int64(wintime) - windowsToUnixEpoch
	t = time.Unix(ticks/10000000, (ticks%10000000)*100).UTC()
	ok = true
	return
}

// PlausibleTime reports whether t falls in the window creation times are trusted in.
func PlausibleTime(t time.Time) bool {
	return t.Year() >= 1950 && t.Year() <= 2200
}
