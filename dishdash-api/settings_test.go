package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSSettingsValidation(t *testing.T) {
	// Arrange
	validate := newSettingsValidator()

	tests := []struct {
		name    string
		cors    CORSSettings
		wantErr bool
	}{
		{
			name: "valid cors",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"GET", "POST"},
				Headers: []string{"Accept", "Authorization"},
			},
			wantErr: false,
		},
		{
			name: "invalid method",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"FOO"},
				Headers: []string{"Accept"},
			},
			wantErr: true,
		},
		{
			name: "invalid header",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"GET"},
				Headers: []string{"X-INVALID"},
			},
			wantErr: true,
		},
		{
			name: "invalid origin",
			cors: CORSSettings{
				Origins: []string{"*"},
				Methods: []string{"GET"},
				Headers: []string{"Accept"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		// Act
		err := validate.Struct(tt.cors)

		// Assert
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}

func TestBackendSettingsValidation(t *testing.T) {
	validate := newSettingsValidator()

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{
			name:    "disabled mongo needs nothing",
			value:   MongoSettings{Enabled: false},
			wantErr: false,
		},
		{
			name:    "enabled mongo needs uri and database",
			value:   MongoSettings{Enabled: true},
			wantErr: true,
		},
		{
			name: "enabled mongo fully configured",
			value: MongoSettings{
				Enabled:  true,
				URI:      "mongodb://localhost:27017",
				Database: "dishdash",
			},
			wantErr: false,
		},
		{
			name:    "enabled redis needs addr",
			value:   RedisSettings{Enabled: true},
			wantErr: true,
		},
		{
			name: "nats credentials require username and password",
			value: NatsSettings{
				Enabled:        true,
				UseCredentials: true,
				Host:           "nats://localhost",
				Port:           4222,
				SubjectPrefix:  "snapshots",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		err := validate.Struct(tt.value)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dishdash-api", cfg.App.Name)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 24, cfg.Auth.TokenTTLInHours)
	assert.False(t, cfg.Mongo.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Nats.Enabled)
	assert.Equal(t, "/blobs", cfg.Blob.BaseURL)
}
