package cmd

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"github.com/spf13/cobra"
	"mliatlas/internal/agent"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question using Claude AI via Fantasy",
	Long: `Ask a natural language question and get an AI-powered answer using Claude Haiku 4.5.
This command uses the Fantasy library to interact with Claude, with tools
for ranking, classification, state details, and SQL queries.

Requires ANTHROPIC_API_KEY environment variable to be set.

Example:
  mliatlas ask "Which states had the largest MLI decline since 2018?"
  mliatlas ask "Is Ohio affordable relative to its income?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Get the question from arguments
		question := args[0]

		// Wrap the store initializer to match the agent package's interface
		initQuery := func(dataDir string) (agent.QueryRunner, func(), error) {
			store, cleanup, err := InitStore(dataDir)
			if err != nil {
				return nil, nil, err
			}
			return &queryRunnerAdapter{store: store}, cleanup, nil
		}

		// Create the agent using the factory with options
		fantasyAgent, err := agent.NewAskAgent(
			rootCmd,
			agent.WithAPIKeyFromEnv(),
			agent.WithDataDir(dataDir),
			agent.WithDataLoader(agent.LoadDataFunc(LoadData)),
			agent.WithQueryInitializer(initQuery),
		)
		if err != nil {
			HandleError(err, "Failed to create agent")
		}

		ctx := context.Background()

		// Generate the response
		result, err := fantasyAgent.Generate(ctx, fantasy.AgentCall{Prompt: question})
		if err != nil {
			HandleError(err, "Failed to generate response")
		}

		// Print the response
		fmt.Println(result.Response.Content.Text())
	},
}

// queryRunnerAdapter adapts cmd.StoreInterface to agent.QueryRunner
type queryRunnerAdapter struct {
	store StoreInterface
}

func (a *queryRunnerAdapter) RunQuery(sql string) (interface{}, error) {
	return a.store.ExecuteQuery(sql, 200)
}

func init() {
	rootCmd.AddCommand(askCmd)
}
