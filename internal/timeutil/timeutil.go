package timeutil

import "time"

// Interval - полуоткрытый интервал [Start, End) в UTC
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов [aStart, aEnd)
// и [bStart, bEnd). Смежные интервалы (aEnd == bStart) не пересекаются.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && bEnd.After(aStart)
}

// OverlapsAny проверяет пересечение интервала с любым из списка
func OverlapsAny(start, end time.Time, intervals []Interval) bool {
	for _, iv := range intervals {
		if Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}

// ResolveLocation разрешает IANA-имя таймзоны. Пустое или неизвестное имя
// деградирует до UTC: второй результат false сигнализирует вызывающей
// стороне о деградации, но не является ошибкой.
func ResolveLocation(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// FromWallClock строит момент времени из локальной даты и минут от полуночи.
// Если локальное время попадает в "дыру" перехода на летнее время
// (не существует на стенных часах), возвращает ok=false - такие кандидаты
// пропускаются. Неоднозначные времена (стрелки переводятся назад и время
// встречается дважды) разрешаются выбором time.Date - смещением до
// перехода, то есть более ранним моментом.
func FromWallClock(year int, month time.Month, day, minutes int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, minutes, 0, 0, loc)
	if t.Hour()*60+t.Minute() != minutes%(24*60) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
