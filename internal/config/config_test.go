package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Errorf("expected JWT TTL 168h, got %s", cfg.JWTTTL)
	}
	if !cfg.RedisEnabled {
		t.Error("expected redis enabled by default")
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("unexpected redis addr %s", cfg.RedisAddr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://csl.example,https://admin.csl.example")
	t.Setenv("STANDINGS_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.DBPort != 6543 {
		t.Errorf("expected DB port 6543, got %d", cfg.DBPort)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StandingsCacheTTL != 30*time.Second {
		t.Errorf("expected 30s cache TTL, got %s", cfg.StandingsCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			AppEnv:            "production",
			JWTSecret:         "0123456789abcdef0123456789abcdef",
			JWTTTL:            time.Hour,
			DBMaxOpenConns:    10,
			DBMaxIdleConns:    2,
			StandingsCacheTTL: time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret in development", func(c *Config) { c.AppEnv = "development"; c.JWTSecret = "short" }, false},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, true},
		{"idle above open", func(c *Config) { c.DBMaxIdleConns = 20 }, true},
		{"zero cache ttl", func(c *Config) { c.StandingsCacheTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	expected := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := cfg.DatabaseDSN(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
