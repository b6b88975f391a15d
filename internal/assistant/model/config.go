package model

import "time"

// ================ Config ================
type ReasoningConfig struct {
	BaseURL        string        `envconfig:"REASONING_BASE_URL" default:"https://api.deepseek.com/v1"`
	APIKey         string        `envconfig:"DEEPSEEK_API_KEY" required:"true"`
	Model          string        `envconfig:"REASONING_MODEL" default:"deepseek-chat"`
	Temperature    float32       `envconfig:"REASONING_TEMPERATURE" default:"0.3"`
	MaxTokens      int           `envconfig:"REASONING_MAX_TOKENS" default:"1000"`
	MaxPromptRunes int           `envconfig:"REASONING_MAX_PROMPT_RUNES" default:"2000"`
	Persona        string        `envconfig:"REASONING_PERSONA" default:"экспертный бухгалтер"`
	UserAgent      string        `envconfig:"REASONING_USER_AGENT" default:"AccountingBot/3.0"`
	MaxConns       int           `envconfig:"REASONING_MAX_CONNS" default:"10"`
	ConnectTimeout time.Duration `envconfig:"REASONING_CONNECT_TIMEOUT" default:"10s"`
	RequestTimeout time.Duration `envconfig:"REASONING_REQUEST_TIMEOUT" default:"30s"`
	HealthTimeout  time.Duration `envconfig:"REASONING_HEALTH_TIMEOUT" default:"5s"`
	Retries        int           `envconfig:"REASONING_RETRIES" default:"3"`
	BackoffBase    float64       `envconfig:"REASONING_BACKOFF_BASE" default:"2"`
	BackoffUnit    time.Duration `envconfig:"REASONING_BACKOFF_UNIT" default:"1s"`
}

type DialogueConfig struct {
	DefaultRegime string `envconfig:"DIALOGUE_DEFAULT_REGIME" default:"УСН"`
	MaxReplyRunes int    `envconfig:"DIALOGUE_MAX_REPLY_RUNES" default:"4000"`
}

type DocumentConfig struct {
	OutputDir string `envconfig:"DOCUMENTS_OUTPUT_DIR" default:"documents"`
	Executor  string `envconfig:"DOCUMENTS_EXECUTOR" default:"ООО 'БухПрофи'"`
}

type StateConfig struct {
	TTL time.Duration `envconfig:"CONVERSATION_STATE_TTL" default:"24h"`
}
