package config

import (
	"os"
	"strconv"
	"time"
)

// Config は起動時に環境変数から読む設定。
// 起動後に書き換えない（trialモードも含めてここで固定）。
type Config struct {
	Port string

	JWTSecret string
	TokenTTL  time.Duration

	//決済ゲートウェイ
	RazorpayBaseURL   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	GatewayTimeout    time.Duration

	//trueならオンライン決済をtrial（即時完了）に読み替える
	TrialMode bool
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		JWTSecret: getenv("JWT_SECRET", "dev-secret"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		RazorpayBaseURL:   os.Getenv("RAZORPAY_BASE_URL"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		GatewayTimeout:    getenvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		TrialMode: getenvBool("TRIAL_MODE", false),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
