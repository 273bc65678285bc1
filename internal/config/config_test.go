package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080, BaseURL: "http://localhost:8080"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "courierbridge"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.App.BaseURL = "https://bridge.example.com"
	c.Auth.JWTIssuer = "courier-bridge"
	c.Auth.JWTAudience = "courier-bridge-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_ProductionRequiresHTTPSBaseURL(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.App.BaseURL = "http://bridge.example.com"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "courier-bridge"
	c.Auth.JWTAudience = "courier-bridge-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production http base URL")
	}
}

func TestValidate_TwilioNumberMustBeE164(t *testing.T) {
	c := validBase()
	c.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok", PhoneNumber: "0501234567"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-E.164 TWILIO_PHONE_NUMBER")
	}
}

func TestTwilioConfigured(t *testing.T) {
	c := validBase()
	if c.TwilioConfigured() {
		t.Fatalf("expected not configured without credentials")
	}
	c.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok", PhoneNumber: "+15550001111"}
	if !c.TwilioConfigured() {
		t.Fatalf("expected configured")
	}
}

func TestIsLocalEnv(t *testing.T) {
	for env, want := range map[string]bool{"local": true, "dev": true, "staging": false, "production": false} {
		c := Config{App: AppConfig{Env: env}}
		if got := c.IsLocalEnv(); got != want {
			t.Fatalf("IsLocalEnv(%q) = %v, want %v", env, got, want)
		}
	}
}
