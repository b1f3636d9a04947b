package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/server"
)

var askCmd = &cobra.Command{
	Use:   "ask [action]",
	Short: "Run a single action and print its result as json",
	Long: "Run a single action with a json payload read from --payload. " +
		"Without an action argument the action is chosen from a list.",
	Args: cobra.MaximumNArgs(1),
	RunE: ask,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("payload", "p", "-", "file with the json payload, - reads stdin")
}

func ask(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return err
	}

	action := ""
	if len(args) == 1 {
		action = args[0]
	} else {
		prompt := promptui.Select{
			Label: "Action",
			Items: server.Actions(),
		}
		if _, action, err = prompt.Run(); err != nil {
			return fmt.Errorf("choose action: %w", err)
		}
	}

	payload, err := readPayload(cmd, cmd.Flag("payload").Value.String())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	srv, err := server.New(server.Config{MinimumMatchScore: config.Search.MinimumMatchScore}, optionalAssistant(ctx, config, log), log)
	if err != nil {
		return err
	}

	result, err := srv.Do(ctx, action, payload, log.With(zap.String("action", action)))
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return printJSON(cmd.OutOrStdout(), result)
}

func readPayload(cmd *cobra.Command, source string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)

	if source == "" || source == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("payload from %q is not valid json", source)
	}

	return data, nil
}

func printJSON(w io.Writer, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = fmt.Fprintln(w, string(pretty))
	return err
}
