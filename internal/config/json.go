package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] for JSON files. Durations
// are accepted both as strings ("20m") and as nanosecond numbers.
type StructuredJSONConfig struct {
	App struct {
		TokenSignKey         string   `json:"token_sign_key"`
		TokenIssuer          string   `json:"token_issuer"`
		AccessTokenDuration  Duration `json:"access_token_duration"`
		RefreshTokenDuration Duration `json:"refresh_token_duration"`
		BcryptCost           int      `json:"bcrypt_cost"`
		LockoutThreshold     int      `json:"lockout_threshold"`
		LockoutDuration      Duration `json:"lockout_duration"`
		ResetTokenTTL        Duration `json:"reset_token_ttl"`
		ResetBaseURL         string   `json:"reset_base_url"`
		ConcealUnknownEmail  bool     `json:"conceal_unknown_email"`
		Version              string   `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		Driver string `json:"driver"`
		DB     struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		Mongo struct {
			URI      string `json:"uri"`
			Database string `json:"database"`
		} `json:"mongo,omitempty"`
		Cache struct {
			RedisAddress  string `json:"redis_address"`
			RedisPassword string `json:"redis_password"`
			RedisDB       int    `json:"redis_db"`
		} `json:"cache,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress       string   `json:"http_address"`
		RequestTimeout    Duration `json:"request_timeout"`
		RateLimitRequests int      `json:"rate_limit_requests"`
		RateLimitWindow   Duration `json:"rate_limit_window"`
	} `json:"server,omitempty"`

	Mailer struct {
		Provider string `json:"provider"`
		From     string `json:"from"`
		SMTP     struct {
			Host     string `json:"host"`
			Port     int    `json:"port"`
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"smtp,omitempty"`
		Mailgun struct {
			Domain  string `json:"domain"`
			APIKey  string `json:"api_key"`
			BaseURL string `json:"base_url"`
		} `json:"mailgun,omitempty"`
	} `json:"mailer,omitempty"`

	Workers struct {
		ResetTokenSweepInterval Duration `json:"reset_token_sweep_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:         jsonCfg.App.TokenSignKey,
			TokenIssuer:          jsonCfg.App.TokenIssuer,
			AccessTokenDuration:  time.Duration(jsonCfg.App.AccessTokenDuration),
			RefreshTokenDuration: time.Duration(jsonCfg.App.RefreshTokenDuration),
			BcryptCost:           jsonCfg.App.BcryptCost,
			LockoutThreshold:     jsonCfg.App.LockoutThreshold,
			LockoutDuration:      time.Duration(jsonCfg.App.LockoutDuration),
			ResetTokenTTL:        time.Duration(jsonCfg.App.ResetTokenTTL),
			ResetBaseURL:         jsonCfg.App.ResetBaseURL,
			ConcealUnknownEmail:  jsonCfg.App.ConcealUnknownEmail,
			Version:              jsonCfg.App.Version,
		},
		Storage: Storage{
			Driver: jsonCfg.Storage.Driver,
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Mongo: Mongo{
				URI:      jsonCfg.Storage.Mongo.URI,
				Database: jsonCfg.Storage.Mongo.Database,
			},
			Cache: Cache{
				RedisAddress:  jsonCfg.Storage.Cache.RedisAddress,
				RedisPassword: jsonCfg.Storage.Cache.RedisPassword,
				RedisDB:       jsonCfg.Storage.Cache.RedisDB,
			},
		},
		Server: Server{
			HTTPAddress:       jsonCfg.Server.HTTPAddress,
			RequestTimeout:    time.Duration(jsonCfg.Server.RequestTimeout),
			RateLimitRequests: jsonCfg.Server.RateLimitRequests,
			RateLimitWindow:   time.Duration(jsonCfg.Server.RateLimitWindow),
		},
		Mailer: Mailer{
			Provider: jsonCfg.Mailer.Provider,
			From:     jsonCfg.Mailer.From,
			SMTP: SMTP{
				Host:     jsonCfg.Mailer.SMTP.Host,
				Port:     jsonCfg.Mailer.SMTP.Port,
				Username: jsonCfg.Mailer.SMTP.Username,
				Password: jsonCfg.Mailer.SMTP.Password,
			},
			Mailgun: Mailgun{
				Domain:  jsonCfg.Mailer.Mailgun.Domain,
				APIKey:  jsonCfg.Mailer.Mailgun.APIKey,
				BaseURL: jsonCfg.Mailer.Mailgun.BaseURL,
			},
		},
		Workers: Workers{
			ResetTokenSweepInterval: time.Duration(jsonCfg.Workers.ResetTokenSweepInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
