package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifySignature(t *testing.T) {
	secret := "test-secret"
	sig := SignPayload(secret, "order_abc", "pay_xyz")

	assert.NotEmpty(t, sig)
	assert.True(t, VerifySignature(secret, "order_abc", "pay_xyz", sig))
}

func TestVerifySignature_Mismatch(t *testing.T) {
	secret := "test-secret"
	sig := SignPayload(secret, "order_abc", "pay_xyz")

	//改ざんされたID
	assert.False(t, VerifySignature(secret, "order_abc", "pay_other", sig))
	//別の鍵
	assert.False(t, VerifySignature("wrong-secret", "order_abc", "pay_xyz", sig))
	//署名そのものの改ざん
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", sig+"00"))
	//空署名
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", ""))
}

func TestSignPayload_SeparatorMatters(t *testing.T) {
	secret := "test-secret"
	//連結の区切りが効いていること（"a|bc" と "ab|c" は別の署名）
	assert.NotEqual(t, SignPayload(secret, "a", "bc"), SignPayload(secret, "ab", "c"))
}

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(266700), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "ORD000000010001", body["receipt"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_ext_1",
			"amount":   266700,
			"currency": "INR",
			"receipt":  "ORD000000010001",
			"status":   "created",
		})
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "key_id", "key_secret", 5*time.Second)

	intent, err := c.CreateIntent(context.Background(), 266700, "INR", "ORD000000010001")
	require.NoError(t, err)
	assert.Equal(t, "order_ext_1", intent.ID)
	assert.Equal(t, int64(266700), intent.Amount)
}

func TestCreateIntent_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "k", "s", 5*time.Second)

	_, err := c.CreateIntent(context.Background(), 100, "INR", "r1")
	assert.Error(t, err)
}

func TestCreateIntent_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "k", "s", 5*time.Second)

	for i := 0; i < 5; i++ {
		_, err := c.CreateIntent(context.Background(), 100, "INR", "r1")
		require.Error(t, err)
		require.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}

	//5連続失敗でオープン。以降は即時に遮断される
	_, err := c.CreateIntent(context.Background(), 100, "INR", "r1")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}
