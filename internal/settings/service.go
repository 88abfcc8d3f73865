// Package settings serves the store-wide configuration singleton shown on
// the storefront (delivery window, contact channels).
package settings

import (
	"context"
	"encoding/json"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/redisx"
)

type Settings struct {
	DeliveryDaysMin int    `json:"delivery_days_min"`
	DeliveryDaysMax int    `json:"delivery_days_max"`
	DeliveryWarning string `json:"delivery_warning"`
	WhatsApp        string `json:"whatsapp"`
	Instagram       string `json:"instagram"`
	Email           string `json:"email"`
}

func Defaults() Settings {
	return Settings{
		DeliveryDaysMin: 15,
		DeliveryDaysMax: 30,
		DeliveryWarning: "⚠️ Prazo de entrega: 15-30 dias úteis (produto importado)",
		WhatsApp:        "5511999999999",
		Instagram:       "@crstreet",
		Email:           "contato@crstreet.com.br",
	}
}

type Service struct {
	Store kv.Store
	group singleflight.Group
}

func NewService(store kv.Store) *Service {
	return &Service{Store: store}
}

// Get returns the stored settings. On first read the defaults are written
// and returned; concurrent first reads share one initialization.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	v, err, _ := s.group.Do(redisx.KeySettings, func() (any, error) {
		// detached: the result is shared by every waiting caller
		ctx := context.WithoutCancel(ctx)
		b, err := s.Store.Get(ctx, redisx.KeySettings)
		if errors.Is(err, kv.ErrNotFound) {
			def := Defaults()
			if err := s.put(ctx, &def); err != nil {
				return nil, err
			}
			return &def, nil
		}
		if err != nil {
			return nil, apperr.Persistence("get settings", err)
		}
		var st Settings
		if err := json.Unmarshal(b, &st); err != nil {
			return nil, apperr.Persistence("decode settings", err)
		}
		return &st, nil
	})
	if err != nil {
		return nil, err
	}
	st := *v.(*Settings)
	return &st, nil
}

// Update replaces the whole document. Omitted fields become zero values.
func (s *Service) Update(ctx context.Context, st Settings) (*Settings, error) {
	if err := s.put(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) put(ctx context.Context, st *Settings) error {
	b, err := json.Marshal(st)
	if err != nil {
		return apperr.Persistence("encode settings", err)
	}
	if err := s.Store.Set(ctx, redisx.KeySettings, b); err != nil {
		return apperr.Persistence("save settings", err)
	}
	return nil
}
