package webhook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

var (
	// ErrUnknownPrice идентификатор цены не соответствует ни одному плану.
	ErrUnknownPrice = errors.New("unknown subscription price")
	// ErrEmptyPrice у подписки нет идентификатора цены, план определить нельзя.
	ErrEmptyPrice = errors.New("empty subscription price")
)

// PriceMapper сопоставляет идентификатор цены провайдера с планом подписки.
type PriceMapper struct {
	monthly  map[string]struct{}
	yearly   map[string]struct{}
	strict   bool
	log      *slog.Logger
	fallback prometheus.Counter
}

// NewPriceMapper создаёт PriceMapper. fallback может быть nil.
func NewPriceMapper(monthlyIDs, yearlyIDs []string, strict bool, log *slog.Logger, fallback prometheus.Counter) *PriceMapper {
	return &PriceMapper{
		monthly:  toSet(monthlyIDs),
		yearly:   toSet(yearlyIDs),
		strict:   strict,
		log:      log,
		fallback: fallback,
	}
}

// Map возвращает план для priceID. Сначала проверяются явно настроенные
// идентификаторы, затем подстроки "monthly" и "yearly" (в этом порядке).
// Если ничего не подошло, в строгом режиме возвращается ErrUnknownPrice,
// иначе monthly с предупреждением в логе. Пустой priceID всегда ошибка.
func (p *PriceMapper) Map(priceID string) (models.Plan, error) {
	const op = "webhook.PriceMapper.Map"

	if strings.TrimSpace(priceID) == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPrice)
	}

	if _, ok := p.monthly[priceID]; ok {
		return models.PlanMonthly, nil
	}
	if _, ok := p.yearly[priceID]; ok {
		return models.PlanYearly, nil
	}
	switch {
	case strings.Contains(priceID, "monthly"):
		return models.PlanMonthly, nil
	case strings.Contains(priceID, "yearly"):
		return models.PlanYearly, nil
	}

	if p.strict {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownPrice, priceID)
	}
	p.log.Warn("price id matches no plan, falling back to monthly",
		slog.String("op", op), slog.String("price_id", priceID))
	if p.fallback != nil {
		p.fallback.Inc()
	}
	return models.PlanMonthly, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
