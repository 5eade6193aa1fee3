package helper

import (
	"fmt"
	"strings"
	"time"
)

// FormatLapTime converts a lap duration to minutes:seconds.milliseconds (1:23.456)
func FormatLapTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	milliseconds := ms % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, milliseconds)
}

// method to convert to seconds and 3 milliseconds
func FormatSectorTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", d.Seconds())
}

func Seconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}

// FromSeconds converts fractional seconds as returned by timing feeds to a duration
// rounded to the millisecond.
func FromSeconds(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds*1000+0.5) * time.Millisecond
}

func DriverCode(name string) string {
	// returns the first three letters of the surname, or of the name when there is no surname
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	word := words[len(words)-1]
	if len(word) > 3 {
		word = word[:3]
	}
	return strings.ToUpper(word)
}
