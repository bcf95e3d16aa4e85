package hub

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 1 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultCodeVersion    = 1.0

	DefaultQuestionPath = "plugins/alexaapiv2/core/php/askQuestion.php"
	DefaultAnswerPath   = "plugins/alexaapiv2/core/php/askResponse.php?command=reponseASK"
	DefaultLogPath      = "plugins/alexaapiv2/core/php/askResponse.php?command=log"
)

// Config holds everything the hub client needs from its host.
// The worst-case latency of one call is roughly
// MaxRetries*(ConnectTimeout+ReadTimeout) plus the retry sleeps, which must
// stay under the voice platform's own request deadline.
type Config struct {
	URL                string        `yaml:"url"`
	APIKey             string        `yaml:"api_key"`
	Token              string        `yaml:"token"` // static bearer token; empty means account linking
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	PostLogs           *bool         `yaml:"post_logs"` // nil = enabled
	CodeVersion        float64       `yaml:"code_version"`

	QuestionPath string `yaml:"question_path"`
	AnswerPath   string `yaml:"answer_path"`
	LogPath      string `yaml:"log_path"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.MaxRetries < 1 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.CodeVersion == 0 {
		c.CodeVersion = DefaultCodeVersion
	}
	if c.QuestionPath == "" {
		c.QuestionPath = DefaultQuestionPath
	}
	if c.AnswerPath == "" {
		c.AnswerPath = DefaultAnswerPath
	}
	if c.LogPath == "" {
		c.LogPath = DefaultLogPath
	}
	return c
}

// LogPostingEnabled reports whether diagnostics are forwarded to the hub.
func (c Config) LogPostingEnabled() bool {
	return c.PostLogs == nil || *c.PostLogs
}

// Validate checks the fields that have no sensible default.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("hub url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid hub url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid hub url scheme %q", u.Scheme)
	}
	return nil
}

func (c Config) endpoint(path string) (string, error) {
	base := strings.TrimRight(c.URL, "/")
	u, err := url.Parse(base + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("build url for %s: %w", path, err)
	}
	if c.APIKey != "" {
		q := u.Query()
		q.Set("apikey", c.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
