package main

import (
	"time"

	"schedule-backend/internal/components/notify"
	"schedule-backend/internal/httpapi"
	"schedule-backend/internal/locator"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/retrieval"
	"schedule-backend/pkg/migrations"
)

type HttpConfig struct {
	Port           int    `json:"port"`
	AllowOrigin    string `json:"allow_origin"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

type SourceConfig struct {
	PageUrl       string   `json:"page_url"`
	FallbackUrl   string   `json:"fallback_url"`
	Extensions    []string `json:"extensions"`
	TargetPhrase  string   `json:"target_phrase"`
	AcceptAnyLink bool     `json:"accept_any_link"`
	PageReferer   string   `json:"page_referer"`
}

type RetrievalConfig struct {
	MaxAttempts       int                   `json:"max_attempts"`
	TimeoutSeconds    int                   `json:"timeout_seconds"`
	BaseDelayMs       int                   `json:"base_delay_ms"`
	JitterMs          int                   `json:"jitter_ms"`
	RequestsPerSecond float64               `json:"requests_per_second"`
	CloudflareBypass  bool                  `json:"cloudflare_bypass"`
	MaxBodyBytes      int64                 `json:"max_body_bytes"`
	HeaderSets        []retrieval.HeaderSet `json:"header_sets"`
	ClientIps         []string              `json:"client_ips"`
	ClientIpHeaders   []string              `json:"client_ip_headers"`
}

type NormalizerConfig struct {
	GroupMode     string `json:"group_mode"`
	MissingMarker string `json:"missing_marker"`
	UnknownGroup  string `json:"unknown_group"`
}

type RefreshConfig struct {
	// Cron is a standard 5 field cron spec, empty disables scheduled refreshes.
	Cron    string `json:"cron"`
	OnStart bool   `json:"refresh_on_start"`
}

type Config struct {
	Http       HttpConfig        `json:"http"`
	Database   migrations.Config `json:"database"`
	Timezone   string            `json:"timezone"`
	Source     SourceConfig      `json:"source"`
	Retrieval  RetrievalConfig   `json:"retrieval"`
	Normalizer NormalizerConfig  `json:"normalizer"`
	Refresh    RefreshConfig     `json:"refresh"`
	Notify     notify.SMTPConfig `json:"notify"`
}

func DefaultConfig() Config {
	return Config{
		Http: HttpConfig{
			Port:           10000,
			MaxUploadBytes: httpapi.DefaultMaxUploadBytes,
		},
		Database: migrations.Config{
			File: "schedule.db",
		},
		Timezone: "Europe/Moscow",
		Source: SourceConfig{
			Extensions: locator.DefaultExtensions,
		},
		Retrieval: RetrievalConfig{
			MaxAttempts:     retrieval.DefaultMaxAttempts,
			TimeoutSeconds:  int(retrieval.DefaultTimeout / time.Second),
			BaseDelayMs:     int(retrieval.DefaultBaseDelay / time.Millisecond),
			MaxBodyBytes:    retrieval.DefaultMaxBodyBytes,
			HeaderSets:      retrieval.DefaultHeaderSets,
			ClientIpHeaders: retrieval.DefaultClientIPHeaders,
		},
		Normalizer: NormalizerConfig{
			GroupMode:     string(normalizer.GroupFromHeader),
			MissingMarker: normalizer.DefaultMissingMarker,
			UnknownGroup:  normalizer.DefaultUnknownGroup,
		},
	}
}

func (c RetrievalConfig) Options() retrieval.Options {
	return retrieval.Options{
		MaxAttempts:       c.MaxAttempts,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		BaseDelay:         time.Duration(c.BaseDelayMs) * time.Millisecond,
		Jitter:            time.Duration(c.JitterMs) * time.Millisecond,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
		MaxBodyBytes:      c.MaxBodyBytes,
		Shaping: retrieval.ShapingPolicy{
			HeaderSets:      c.HeaderSets,
			ClientIPs:       c.ClientIps,
			ClientIPHeaders: c.ClientIpHeaders,
		},
	}
}

func (c SourceConfig) Options() locator.Options {
	return locator.Options{
		FallbackUrl:   c.FallbackUrl,
		Extensions:    c.Extensions,
		TargetPhrase:  c.TargetPhrase,
		AcceptAnyLink: c.AcceptAnyLink,
	}
}

func (c NormalizerConfig) Options() normalizer.Options {
	return normalizer.Options{
		GroupMode:     normalizer.GroupMode(c.GroupMode),
		MissingMarker: c.MissingMarker,
		UnknownGroup:  c.UnknownGroup,
	}
}
