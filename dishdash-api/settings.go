package main

import (
	"bytes"
	"log"
	"strconv"
	"strings"

	_ "embed"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
)

//go:embed base.yaml
var baseConfig []byte

type AppSettings struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
}

type CORSSettings struct {
	Origins []string `mapstructure:"origins" validate:"min=1,dive,url"`
	Methods []string `mapstructure:"methods" validate:"min=1,dive,oneof=GET POST PUT DELETE OPTIONS PATCH HEAD"`
	Headers []string `mapstructure:"headers" validate:"min=1,dive,baseheader"`
}

type HTTPSettings struct {
	Port   string       `mapstructure:"port" validate:"required,numeric"`
	Prefix string       `mapstructure:"prefix" validate:"required"`
	IP     string       `mapstructure:"ip" validate:"required,ip"`
	CORS   CORSSettings `mapstructure:"cors" validate:"required"`
}

type AuthSettings struct {
	Secret          string `mapstructure:"secret" validate:"required"`
	TokenTTLInHours int    `mapstructure:"token-ttl-in-hours" validate:"required,min=1"`
}

type MongoSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri" validate:"required_if=Enabled true"`
	Database string `mapstructure:"database" validate:"required_if=Enabled true"`
}

type RedisSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NatsSettings struct {
	Enabled        bool `mapstructure:"enabled"`
	UseCredentials bool `mapstructure:"usecredentials"`
	// Only used if UseCredentials is true
	Username      string `mapstructure:"username" validate:"required_if=UseCredentials true"`
	Password      string `mapstructure:"password" validate:"required_if=UseCredentials true"`
	Host          string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port          int    `mapstructure:"port" validate:"required_if=Enabled true"`
	SubjectPrefix string `mapstructure:"subject-prefix" validate:"required_if=Enabled true"`
}

func (n *NatsSettings) GetNatsClient() (*nats.Conn, error) {
	portStr := strconv.Itoa(n.Port)
	if n.UseCredentials {
		return nats.Connect(n.Host+":"+portStr, nats.UserInfo(n.Username, n.Password))
	}
	return nats.Connect(n.Host + ":" + portStr)
}

type BlobSettings struct {
	Root    string `mapstructure:"root" validate:"required"`
	BaseURL string `mapstructure:"base-url" validate:"required"`
}

type OpenTelemetryLogSettings struct {
	TimeoutInSec  int64 `mapstructure:"timeout"`
	IntervalInSec int64 `mapstructure:"interval"`
	MaxQueueSize  int   `mapstructure:"maxqueuesize"`
	BatchSize     int   `mapstructure:"batchsize"`
}

type OpenTelemetryTraceSettings struct {
	TimeoutInSec int64 `mapstructure:"timeout"`
	MaxQueueSize int   `mapstructure:"maxqueuesize"`
	BatchSize    int   `mapstructure:"batchsize"`
	SampleRate   int   `mapstructure:"samplerate"`
}

type OpenTelemetryMetricSettings struct {
	IntervalInSec int64 `mapstructure:"interval"`
	TimeoutInSec  int64 `mapstructure:"timeout"`
}

type OpenTelemetrySettings struct {
	Enabled  bool                        `mapstructure:"enabled"`
	Endpoint string                      `mapstructure:"endpoint"`
	Metrics  OpenTelemetryMetricSettings `mapstructure:"metrics"`
	Traces   OpenTelemetryTraceSettings  `mapstructure:"traces"`
	Logs     OpenTelemetryLogSettings    `mapstructure:"logs"`
	Interval int                         `mapstructure:"interval"`
}

type Settings struct {
	App           AppSettings           `mapstructure:"app" validate:"required"`
	HTTP          HTTPSettings          `mapstructure:"http" validate:"required"`
	Auth          AuthSettings          `mapstructure:"auth" validate:"required"`
	Mongo         MongoSettings         `mapstructure:"mongo"`
	Redis         RedisSettings         `mapstructure:"redis"`
	Nats          NatsSettings          `mapstructure:"nats"`
	Blob          BlobSettings          `mapstructure:"blob" validate:"required"`
	OpenTelemetry OpenTelemetrySettings `mapstructure:"opentelemetry" validate:"required"`
}

func LoadConfig() (*Settings, error) {
	var cfg *Settings

	viper.SetConfigType("yaml")
	err := viper.ReadConfig(bytes.NewReader(baseConfig))
	if err != nil {
		log.Println("Failed to read config from yaml")
		return nil, err
	}

	viper.SetEnvPrefix("DISHDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	validate := newSettingsValidator()
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSettingsValidator() *validator.Validate {
	validate := validator.New()
	allowedHeaders := map[string]struct{}{
		"Accept": {}, "Authorization": {}, "Content-Type": {}, "X-CSRF-Token": {},
	}
	validate.RegisterValidation("baseheader", func(fl validator.FieldLevel) bool {
		header := fl.Field().String()
		_, ok := allowedHeaders[header]
		return ok
	})
	return validate
}
