// Package config loads the telephony agent's runtime configuration from
// environment variables (optionally overlaid by a YAML file), using Viper
// the way the rest of the example corpus wires up configuration providers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration surface for the telephony agent
// process: carrier webhook credentials, provider selection and API keys,
// the HTTP listen address, and conversation/VAD tuning.
type Config struct {
	ListenAddr    string `mapstructure:"listen_addr"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	TwilioAuthToken string `mapstructure:"twilio_auth_token"`

	STTProvider string `mapstructure:"stt_provider"`
	LLMProvider string `mapstructure:"llm_provider"`

	GroqAPIKey       string `mapstructure:"groq_api_key"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	DeepgramAPIKey   string `mapstructure:"deepgram_api_key"`
	AssemblyAIAPIKey string `mapstructure:"assemblyai_api_key"`
	LokutorAPIKey    string `mapstructure:"lokutor_api_key"`

	AgentLanguage string `mapstructure:"agent_language"`
	AgentVoice    string `mapstructure:"agent_voice"`
	SystemPrompt  string `mapstructure:"system_prompt"`
	Greeting      string `mapstructure:"greeting"`

	MaxConversationTurns int           `mapstructure:"max_conversation_turns"`
	SilenceThreshold     time.Duration `mapstructure:"silence_threshold"`
}

// defaults are the values Load falls back to for any key that neither the
// environment nor the config file sets.
func defaults() Config {
	return Config{
		ListenAddr:           ":8080",
		STTProvider:          "groq",
		LLMProvider:          "anthropic",
		AgentLanguage:        "en",
		AgentVoice:           "F1",
		MaxConversationTurns: 50,
		SilenceThreshold:     800 * time.Millisecond,
		SystemPrompt:         "You are a helpful and concise phone agent. Use short sentences suitable for speech.",
		Greeting:             "Hello! How can I help you today?",
	}
}

// Load reads configuration from environment variables prefixed TELEPHONY_
// (e.g. TELEPHONY_LISTEN_ADDR), optionally overlaid by a YAML file named
// telephony-agent.yaml on configPaths. Unset fields fall back to defaults().
func Load(configPaths ...string) (Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigName("telephony-agent")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("telephony")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Viper's Unmarshal only considers keys it already knows about, so every
	// field needs a registered default before AutomaticEnv's values reach it.
	for key, val := range map[string]interface{}{
		"listen_addr":            cfg.ListenAddr,
		"public_base_url":        cfg.PublicBaseURL,
		"twilio_auth_token":      cfg.TwilioAuthToken,
		"stt_provider":           cfg.STTProvider,
		"llm_provider":           cfg.LLMProvider,
		"groq_api_key":           cfg.GroqAPIKey,
		"openai_api_key":         cfg.OpenAIAPIKey,
		"anthropic_api_key":      cfg.AnthropicAPIKey,
		"deepgram_api_key":       cfg.DeepgramAPIKey,
		"assemblyai_api_key":     cfg.AssemblyAIAPIKey,
		"lokutor_api_key":        cfg.LokutorAPIKey,
		"agent_language":         cfg.AgentLanguage,
		"agent_voice":            cfg.AgentVoice,
		"system_prompt":          cfg.SystemPrompt,
		"greeting":               cfg.Greeting,
		"max_conversation_turns": cfg.MaxConversationTurns,
		"silence_threshold":      cfg.SilenceThreshold,
	} {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	return cfg, nil
}
