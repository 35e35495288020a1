// Package queue — чистая логика очереди: ранжирование по типу доступности,
// FIFO внутри ранга, пересечение окон. Слой сервисов подаёт сюда строки,
// прочитанные из хранилища.
package queue

import (
	"sort"

	"github.com/carryhub/carry-service/internal/model"
)

var availabilityRank = map[model.AvailabilityType]int{
	model.AvailabilityNow:       0,
	model.AvailabilitySoon:      1,
	model.AvailabilityLater:     2, // reserved rank, the pair parser never emits it
	model.AvailabilityScheduled: 3,
}

// Rank — позиция типа доступности в порядке обслуживания; неизвестный тип
// уходит в конец.
func Rank(t model.AvailabilityType) int {
	if r, ok := availabilityRank[t]; ok {
		return r
	}
	return len(availabilityRank)
}

// Order сортирует тикеты по (rank, created_at), ничья решается порядком
// создания. Сортировка стабильная и на месте.
func Order(tickets []model.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		ri, rj := Rank(tickets[i].AvailableType), Rank(tickets[j].AvailableType)
		if ri != rj {
			return ri < rj
		}
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
		}
		return tickets[i].ID < tickets[j].ID
	})
}

// Overlaps — полуинтервальное пересечение окон двух тикетов; открытый конец
// считается start+4h.
func Overlaps(a, b *model.Ticket) bool {
	return a.AvailableStart.Before(b.AvailabilityWindowEnd()) &&
		b.AvailableStart.Before(a.AvailabilityWindowEnd())
}

// Compatible отбирает из candidates тикеты, совместимые с source: тот же
// режим, ожидают, не слиты, окна пересекаются. Результат отсортирован по
// времени создания.
func Compatible(source *model.Ticket, candidates []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0)
	for i := range candidates {
		c := &candidates[i]
		if c.ID == source.ID || c.Mode != source.Mode {
			continue
		}
		if c.Status != model.TicketStatusWaiting || c.MergedInto != nil {
			continue
		}
		if !Overlaps(source, c) {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Position — 1 + число ожидающих тикетов того же режима, созданных строго
// раньше. Ранг доступности намеренно не участвует: это ответ на "сколько
// пришло раньше меня", а не порядок обслуживания.
func Position(target *model.Ticket, waiting []model.Ticket) int {
	pos := 1
	for i := range waiting {
		w := &waiting[i]
		if w.ID == target.ID || w.Mode != target.Mode {
			continue
		}
		if w.Status != model.TicketStatusWaiting {
			continue
		}
		if w.CreatedAt.Before(target.CreatedAt) {
			pos++
		}
	}
	return pos
}

// FilterAvailableNow оставляет тикеты с типом now (опция available_now
// в выдаче очереди).
func FilterAvailableNow(tickets []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.AvailableType == model.AvailabilityNow {
			out = append(out, t)
		}
	}
	return out
}
