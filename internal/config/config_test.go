package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	config := &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Database: DatabaseConfig{
			Host:   "localhost",
			User:   "test",
			DBName: "test",
		},
		Instagram: InstagramConfig{
			VerifyToken: "verify",
			SendTimeout: 10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 60,
		},
	}

	err := config.Validate()
	assert.NoError(t, err)

	invalidConfig := &Config{
		Server: ServerConfig{
			Port: "",
		},
	}

	err = invalidConfig.Validate()
	assert.Error(t, err)
}

func TestConfigValidationMissingVerifyToken(t *testing.T) {
	config := &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", User: "u", DBName: "d"},
		Instagram: InstagramConfig{
			SendTimeout: time.Second,
		},
		Scheduler: SchedulerConfig{IntervalMinutes: 60},
	}
	assert.Error(t, config.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	config := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	dsn := config.GetDSN()
	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, dsn)
}
