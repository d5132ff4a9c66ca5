package agent

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"github.com/spf13/cobra"
)

const (
	defaultModel        = "claude-haiku-4-5"
	defaultSystemPrompt = "You are a helpful assistant specializing in US state affordability and cost-of-living analysis. You have access to tools that can rank states by Market Livability Index (MLI) metrics, classify states into performance buckets, fetch per-state details, and run SQL against the underlying dataset. Use these tools when appropriate to provide accurate, data-backed answers. MLI is median household income divided by cost of living; above 1.0 means income covers costs."
)

// AgentConfig holds the configuration for creating an ask agent
type AgentConfig struct {
	apiKey       string
	model        string
	systemPrompt string
	dataDir      string
	exclusions   []string
	loadData     LoadDataFunc
	initQuery    InitQueryFunc
}

// AgentOption is a functional option for configuring the agent
type AgentOption func(*AgentConfig) error

// WithAPIKey sets the Anthropic API key
func WithAPIKey(apiKey string) AgentOption {
	return func(c *AgentConfig) error {
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithAPIKeyFromEnv sets the API key from the ANTHROPIC_API_KEY environment variable
func WithAPIKeyFromEnv() AgentOption {
	return func(c *AgentConfig) error {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithModel sets the Claude model to use (default: claude-haiku-4-5)
func WithModel(model string) AgentOption {
	return func(c *AgentConfig) error {
		if model == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithSystemPrompt sets a custom system prompt
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *AgentConfig) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithDataDir sets the data directory for dataset and database operations
func WithDataDir(dataDir string) AgentOption {
	return func(c *AgentConfig) error {
		c.dataDir = dataDir
		return nil
	}
}

// WithToolExclusions sets command names to exclude from tool generation
func WithToolExclusions(exclusions []string) AgentOption {
	return func(c *AgentConfig) error {
		c.exclusions = exclusions
		return nil
	}
}

// WithDataLoader sets the dataset loading function
func WithDataLoader(loadData LoadDataFunc) AgentOption {
	return func(c *AgentConfig) error {
		c.loadData = loadData
		return nil
	}
}

// WithQueryInitializer sets the SQL query runner initialization function
func WithQueryInitializer(initQuery InitQueryFunc) AgentOption {
	return func(c *AgentConfig) error {
		c.initQuery = initQuery
		return nil
	}
}

// NewAskAgent creates a new Fantasy agent configured for answering questions
// about state market livability data. It uses the Options pattern for
// flexible configuration.
func NewAskAgent(rootCmd *cobra.Command, opts ...AgentOption) (fantasy.Agent, error) {
	// Initialize config with defaults
	config := &AgentConfig{
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
		exclusions:   []string{"serve", "ask"},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate required fields
	if config.apiKey == "" {
		return nil, fmt.Errorf("API key is required (use WithAPIKey or WithAPIKeyFromEnv)")
	}
	if config.loadData == nil {
		return nil, fmt.Errorf("dataset loader is required (use WithDataLoader)")
	}
	if config.initQuery == nil {
		return nil, fmt.Errorf("query runner initializer is required (use WithQueryInitializer)")
	}

	// Create Fantasy provider for Anthropic
	provider, err := anthropic.New(anthropic.WithAPIKey(config.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	ctx := context.Background()

	// Create language model
	model, err := provider.LanguageModel(ctx, config.model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Claude model: %w", err)
	}

	// Create tools from registered commands
	agentTools := CreateToolsFromCommands(
		rootCmd,
		config.dataDir,
		config.exclusions,
		config.loadData,
		config.initQuery,
	)

	// Create and return the agent
	agent := fantasy.NewAgent(
		model,
		fantasy.WithSystemPrompt(config.systemPrompt),
		fantasy.WithTools(agentTools...),
	)

	return agent, nil
}

// GenerateResponse is a convenience function that creates an agent and generates a response in one call
func GenerateResponse(ctx context.Context, question string, rootCmd *cobra.Command, opts ...AgentOption) (string, error) {
	agent, err := NewAskAgent(rootCmd, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %w", err)
	}

	result, err := agent.Generate(ctx, fantasy.AgentCall{Prompt: question})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return result.Response.Content.Text(), nil
}
