package cache

import (
	"time"
	_ "time/tzdata"
)

// closeHour は日足が確定したとみなす米国東部時間の時刻です。
const closeHour = 17

var newYork = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// TimeUntilNextClose は now から次の米国東部時間17時までの期間を返します。
// 17時ちょうどの場合は翌日の17時までとなります。
func TimeUntilNextClose(now time.Time) time.Duration {
	local := now.In(newYork)
	next := time.Date(local.Year(), local.Month(), local.Day(), closeHour, 0, 0, 0, newYork)
	if !local.Before(next) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, closeHour, 0, 0, 0, newYork)
	}
	return next.Sub(now)
}
