package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

const DefaultViaCEPURL = "https://viacep.com.br"

type ViaCEP struct {
	BaseURL string
	HTTP    *http.Client
}

func NewViaCEP(baseURL string, timeout time.Duration) *ViaCEP {
	if baseURL == "" {
		baseURL = DefaultViaCEPURL
	}
	return &ViaCEP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	// true or "true" depending on the API version
	Erro any `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (v *ViaCEP) Lookup(ctx context.Context, cep string) (*Address, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", v.BaseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.External("viacep", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.HTTP.Do(req)
	if err != nil {
		return nil, apperr.External("viacep", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, apperr.Validation("invalid CEP %s", cep)
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.External("viacep", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.External("viacep", fmt.Errorf("decode: %w", err))
	}
	if body.notFound() {
		return nil, apperr.NotFound("CEP %s not found", cep)
	}
	return &Address{
		PostalCode:   cep,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}, nil
}
