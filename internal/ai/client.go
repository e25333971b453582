package ai

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/net/proxy"
)

// Client generates in-character replies through an OpenAI-compatible
// endpoint. Ollama exposes one at /v1, so local inference needs no
// special casing.
type Client struct {
	api     openai.Client
	model   string
	persona *Persona
}

// NewClient builds the chat client. socksAddr is optional; when set,
// requests to the model server go through that SOCKS5 proxy.
func NewClient(baseURL, model, socksAddr string, persona *Persona) (*Client, error) {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey("ollama"), // local servers ignore the key but the SDK requires one
	}

	if socksAddr != "" {
		httpClient, err := socksHTTPClient(socksAddr)
		if err != nil {
			return nil, fmt.Errorf("socks proxy: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		api:     openai.NewClient(opts...),
		model:   model,
		persona: persona,
	}, nil
}

// Generate returns the character reply for one question.
func (c *Client) Generate(ctx context.Context, question string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.persona.Prompt()),
			openai.UserMessage(question),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}
	return content, nil
}

func socksHTTPClient(socksAddr string) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   120 * time.Second,
	}, nil
}
