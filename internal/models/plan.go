// Package models содержит доменные структуры сервиса: тарифные планы,
// записи пользователей-подписчиков, сигнатуры вредоносных файлов и историю сканирований.
package models

import (
	"fmt"
	"strings"
)

// Plan тип тарифного плана пользователя.
type Plan string

const (
	// PlanFree бесплатный режим, премиум-функции недоступны.
	PlanFree Plan = "free"
	// PlanMonthly помесячная подписка.
	PlanMonthly Plan = "monthly"
	// PlanYearly годовая подписка.
	PlanYearly Plan = "yearly"
	// PlanLifetime разовый платёж, «бессрочный» доступ.
	PlanLifetime Plan = "lifetime"
)

// planDays длительность каждого плана в днях.
var planDays = map[Plan]int{
	PlanFree:     0,
	PlanMonthly:  30,
	PlanYearly:   365,
	PlanLifetime: 365 * 10,
}

// Plans возвращает все известные планы в фиксированном порядке.
func Plans() []Plan {
	return []Plan{PlanFree, PlanMonthly, PlanYearly, PlanLifetime}
}

// Valid сообщает, является ли значение одним из известных планов.
func (p Plan) Valid() bool {
	_, ok := planDays[p]
	return ok
}

// DurationDays возвращает срок действия плана в днях. Для неизвестного плана 0.
func (p Plan) DurationDays() int {
	return planDays[p]
}

// IsPremium сообщает, даёт ли план доступ к премиум-функциям.
func (p Plan) IsPremium() bool {
	return p.Valid() && p != PlanFree
}

func (p Plan) String() string {
	return string(p)
}

// ParsePlan разбирает строковое представление плана.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.TrimSpace(s))
	if !p.Valid() {
		return PlanFree, fmt.Errorf("unknown subscription type %q", s)
	}
	return p, nil
}
