// Package renewal содержит чистые функции расчёта даты продления подписки
// и границ текущего расчётного периода. Все подписки продлеваются в один
// фиксированный день месяца.
package renewal

import "time"

// Date возвращает дату продления: фиксированный день следующего
// календарного месяца, полночь. Продление всегда назначается на следующий
// месяц, даже если день продления текущего месяца ещё не наступил.
func Date(today time.Time, day int) time.Time {
	firstOfNext := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, today.Location())
}

// PeriodBounds возвращает границы текущего расчётного периода:
// от последнего наступившего дня продления (полночь) до конца текущего дня.
func PeriodBounds(now time.Time, day int) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if now.Day() < day {
		start = start.AddDate(0, -1, 0)
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
	return start, end
}

// NextRun возвращает ближайший момент запуска месячного отчёта:
// день продления в час hour и минуту minute, строго позже now.
func NextRun(now time.Time, day, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, now.Location())
	for !next.After(now) {
		next = time.Date(next.Year(), next.Month()+1, day, hour, minute, 0, 0, next.Location())
	}
	return next
}
