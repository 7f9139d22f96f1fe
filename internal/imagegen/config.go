package imagegen

import "time"

// Config holds the connection settings for an OpenAI-compatible images API.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token and never inspected.
	APIKey string `yaml:"-"`

	Model   string        `yaml:"model"`
	Size    string        `yaml:"size"`
	Quality string        `yaml:"quality"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the settings of the hosted OpenAI API.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "dall-e-3",
		Size:    "1024x1024",
		Quality: "standard",
		Timeout: 60 * time.Second,
	}
}

// generateRequest is the JSON body of POST /images/generations.
type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

// imagesResponse is the body of every images endpoint.
type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
