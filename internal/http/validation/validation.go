// Package validation настраивает валидатор запросов с доменными тегами.
package validation

import (
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// New возвращает валидатор с тегами:
//   - account_email: адрес почты в формате, принимаемом сервисом;
//   - signature_hash: hex-дайджест длины 32, 40 или 64;
//   - plan: один из известных тарифных планов.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
		return models.ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("signature_hash", func(fl validator.FieldLevel) bool {
		return models.ValidHash(models.NormalizeHash(fl.Field().String()))
	})
	_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		return models.Plan(fl.Field().String()).Valid()
	})
	return v
}
