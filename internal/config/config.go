package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Delivery modes supported by the webhook handler.
const (
	DeliveryModeTwiML = "twiml"
	DeliveryModeAPI   = "api"
)

// Image handling policies understood by the modality router.
const (
	ImagePolicyIgnore   = "ignore"
	ImagePolicyDescribe = "describe"
)

// Config captures all runtime configuration for the responder service.
type Config struct {
	App       AppConfig
	Providers ProviderConfig
	Delivery  DeliveryConfig
	Pipeline  PipelineConfig
	Timeouts  TimeoutConfig
	Kafka     KafkaConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// OpenAIConfig stores the AI provider credential and model selection.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	VisionModel        string
	TranscriptionModel string
}

// TwilioConfig stores Twilio credentials used for media retrieval and
// outbound WhatsApp delivery.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// HasCredentials reports whether both halves of the credential pair are set.
func (c TwilioConfig) HasCredentials() bool {
	return strings.TrimSpace(c.AccountSID) != "" && strings.TrimSpace(c.AuthToken) != ""
}

// ProviderConfig wraps configuration for external providers.
type ProviderConfig struct {
	AIProvider       string
	WhatsAppProvider string
	OpenAI           OpenAIConfig
	Twilio           TwilioConfig
}

// DeliveryConfig controls how replies leave the service.
type DeliveryConfig struct {
	Mode                string
	StatusCallbackURL   string
	DispatchConcurrency int
}

// PipelineConfig holds the knobs of the response pipeline.
type PipelineConfig struct {
	ImagePolicy           string
	TranscriptionLanguage string
	MediaMaxBytes         int
}

// TimeoutConfig contains per-call timeouts for outbound providers.
type TimeoutConfig struct {
	MediaFetchSeconds    int
	TranscriptionSeconds int
	CompletionSeconds    int
	VisionSeconds        int
}

// KafkaConfig enables the optional Kafka sink for delivery status events.
type KafkaConfig struct {
	Brokers     []string
	StatusTopic string
}

// Enabled reports whether at least one broker has been configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 3000, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Providers.AIProvider = strings.ToLower(ldr.getString("AI_PROVIDER", "openai", false))
	cfg.Providers.WhatsAppProvider = strings.ToLower(ldr.getString("WHATSAPP_PROVIDER", "mock", false))

	cfg.Providers.OpenAI.APIKey = ldr.getString("OPENAI_API_KEY", "", cfg.Providers.AIProvider == "openai")
	cfg.Providers.OpenAI.BaseURL = ldr.getString("OPENAI_BASE_URL", "https://api.openai.com/v1", false)
	cfg.Providers.OpenAI.ChatModel = ldr.getString("OPENAI_CHAT_MODEL", "gpt-4o", false)
	cfg.Providers.OpenAI.VisionModel = ldr.getString("OPENAI_VISION_MODEL", "gpt-4o", false)
	cfg.Providers.OpenAI.TranscriptionModel = ldr.getString("OPENAI_TRANSCRIPTION_MODEL", "whisper-1", false)

	// The media credential pair is optional at startup: without it media
	// retrieval fails fast per call and the pipeline falls back.
	cfg.Providers.Twilio.AccountSID = ldr.getString("TWILIO_ACCOUNT_SID", "", false)
	cfg.Providers.Twilio.AuthToken = ldr.getString("TWILIO_AUTH_TOKEN", "", false)
	cfg.Providers.Twilio.PhoneNumber = ldr.getString("TWILIO_PHONE_NUMBER", "", false)

	cfg.Delivery.Mode = strings.ToLower(ldr.getString("DELIVERY_MODE", DeliveryModeTwiML, false))
	cfg.Delivery.StatusCallbackURL = ldr.getString("STATUS_CALLBACK_URL", "", false)
	cfg.Delivery.DispatchConcurrency = ldr.getInt("DISPATCH_CONCURRENCY", 10, false)

	cfg.Pipeline.ImagePolicy = strings.ToLower(ldr.getString("IMAGE_POLICY", ImagePolicyIgnore, false))
	cfg.Pipeline.TranscriptionLanguage = ldr.getString("TRANSCRIPTION_LANGUAGE", "es", false)
	cfg.Pipeline.MediaMaxBytes = ldr.getInt("MEDIA_MAX_BYTES", 16*1024*1024, false)

	cfg.Timeouts.MediaFetchSeconds = ldr.getInt("MEDIA_FETCH_TIMEOUT_SECONDS", 30, false)
	cfg.Timeouts.TranscriptionSeconds = ldr.getInt("TRANSCRIPTION_TIMEOUT_SECONDS", 30, false)
	cfg.Timeouts.CompletionSeconds = ldr.getInt("COMPLETION_TIMEOUT_SECONDS", 30, false)
	cfg.Timeouts.VisionSeconds = ldr.getInt("VISION_TIMEOUT_SECONDS", 20, false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Kafka.StatusTopic = ldr.getString("KAFKA_STATUS_TOPIC", "whatsapp.status", false)

	ldr.oneOf("AI_PROVIDER", cfg.Providers.AIProvider, "openai", "mock")
	ldr.oneOf("WHATSAPP_PROVIDER", cfg.Providers.WhatsAppProvider, "twilio", "mock")
	ldr.oneOf("DELIVERY_MODE", cfg.Delivery.Mode, DeliveryModeTwiML, DeliveryModeAPI)
	ldr.oneOf("IMAGE_POLICY", cfg.Pipeline.ImagePolicy, ImagePolicyIgnore, ImagePolicyDescribe)

	if cfg.Delivery.Mode == DeliveryModeAPI && cfg.Providers.WhatsAppProvider == "twilio" {
		if !cfg.Providers.Twilio.HasCredentials() {
			ldr.addError("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required for api delivery")
		}
		if strings.TrimSpace(cfg.Providers.Twilio.PhoneNumber) == "" {
			ldr.addError("TWILIO_PHONE_NUMBER is required for api delivery")
		}
	}
	if cfg.Delivery.DispatchConcurrency < 1 {
		ldr.addError("DISPATCH_CONCURRENCY must be >= 1")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) oneOf(key, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	l.addError(fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")))
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
