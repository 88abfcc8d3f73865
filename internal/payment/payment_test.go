package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

func TestCreatePreference(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		assert.Equal(t, "order-7", r.Header.Get("X-Idempotency-Key"))

		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/checkout?pref=pref-1"}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(srv.URL, "TEST-token", "https://shop.example/", "")
	res, err := mp.CreatePreference(context.Background(), Preference{
		OrderID: 7,
		Items: []Item{
			{ID: 1, Name: "Moletom Oversized Black", Size: "M", Quantity: 2, Price: decimal.RequireFromString("299.90")},
		},
		ShippingCost: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", res.ID)
	assert.Equal(t, "https://mp.example/checkout?pref=pref-1", res.InitPoint)

	items := got["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "Moletom Oversized Black - Tam: M", first["title"])
	assert.Equal(t, "BRL", first["currency_id"])
	assert.EqualValues(t, 2, first["quantity"])

	ship := items[1].(map[string]any)
	assert.Equal(t, "ship", ship["id"])
	assert.Equal(t, "Frete / Entrega", ship["title"])
	assert.EqualValues(t, 1, ship["quantity"])

	assert.Equal(t, "approved", got["auto_return"])
	assert.Equal(t, "7", got["external_reference"])
	backs := got["back_urls"].(map[string]any)
	assert.Equal(t, "https://shop.example/", backs["success"])
}

func TestPreferenceRequest_FreeShippingHasNoShippingLine(t *testing.T) {
	mp := NewMercadoPago("", "tok", "", "")
	req := mp.preferenceRequest(Preference{
		OrderID: 1,
		Items:   []Item{{ID: 1, Name: "x", Size: "P", Quantity: 1, Price: decimal.NewFromInt(10)}},
	})
	assert.Len(t, req.Items, 1)
	assert.Nil(t, req.BackURLs)
	assert.Empty(t, req.AutoReturn)
}

func TestCreatePreference_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer srv.Close()

	_, err := NewMercadoPago(srv.URL, "bad", "", "").CreatePreference(context.Background(), Preference{OrderID: 1})
	assert.ErrorIs(t, err, apperr.ErrExternal)
	assert.Contains(t, err.Error(), "401")

	_, err = NewMercadoPago(srv.URL, "", "", "").CreatePreference(context.Background(), Preference{OrderID: 1})
	assert.ErrorIs(t, err, apperr.ErrExternal)
}

func sign(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "whsec"
	v1 := sign(secret, "id:123456;request-id:req-1;ts:1704908010;")
	header := "ts=1704908010,v1=" + v1

	assert.NoError(t, VerifySignature(secret, header, "req-1", "123456"))
	assert.NoError(t, VerifySignature(secret, " ts=1704908010 , v1="+v1, "req-1", "123456"))

	assert.ErrorIs(t, VerifySignature("other", header, "req-1", "123456"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, header, "req-2", "123456"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, header, "req-1", "999"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, "", "req-1", "123456"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, "ts=1,v1=zz", "req-1", "123456"), ErrInvalidSignature)
}

func TestManifest(t *testing.T) {
	assert.Equal(t, "id:abc;request-id:r;ts:1;", Manifest("ABC", "r", "1"))
	assert.Equal(t, "ts:1;", Manifest("", "", "1"))
}

func TestPreferenceRequest_UnitPriceIsNumber(t *testing.T) {
	mp := NewMercadoPago("", "tok", "", "")
	b, err := json.Marshal(mp.preferenceRequest(Preference{
		OrderID: 3,
		Items:   []Item{{ID: 2, Name: "Camiseta", Size: "G", Quantity: 1, Price: decimal.RequireFromString("109.90")}},
	}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"unit_price":109.9`)
}
