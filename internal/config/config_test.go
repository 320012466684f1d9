package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Env: "development"},
			Database: DatabaseConfig{Driver: DriverMemory},
			JWT:      JWTConfig{Secret: "secret"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.App.Env = "production"
	cfg.JWT.Secret = "change-this-secret-in-production"
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "maglo", Port: "5432", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=maglo port=5432 sslmode=disable TimeZone=UTC", db.DSN())
}

func TestEmailEnabled(t *testing.T) {
	assert.False(t, (&EmailConfig{}).EmailEnabled())
	assert.True(t, (&EmailConfig{SMTPHost: "smtp.example.com", FromEmail: "billing@example.com"}).EmailEnabled())
}
