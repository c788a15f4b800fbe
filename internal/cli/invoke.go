package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scandium/internal/config"
	"scandium/pkg/lambda"
	"scandium/pkg/server"
)

func init() {
	invokeCmd.Flags().StringP("event", "e", "", "event JSON file, - for stdin")
	invokeCmd.Flags().String("hook", "", "run an invoke hook instead of an HTTP event, as file#hook")
	invokeCmd.Flags().String("request-id", "", "request ID to report (random when empty)")
	invokeCmd.Flags().Duration("timeout", 30*time.Second, "invocation deadline")
	invokeCmd.Flags().String("log-level", "info", "log level")
	invokeCmd.Flags().String("log-format", "json", "log format (json, text)")

	viper.BindPFlag("LOG_LEVEL", invokeCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("LOG_FORMAT", invokeCmd.Flags().Lookup("log-format"))

	invokeCmd.MarkFlagsMutuallyExclusive("event", "hook")
	invokeCmd.MarkFlagsOneRequired("event", "hook")

	rootCmd.AddCommand(invokeCmd)
}

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "run one invocation through the adapter against the example application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		eventPath, _ := flags.GetString("event")
		hook, _ := flags.GetString("hook")
		requestID, _ := flags.GetString("request-id")
		timeout, _ := flags.GetDuration("timeout")

		payload, err := readPayload(eventPath, hook, cmd.InOrStdin())
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		container, err := server.NewContainer(cfg, lambda.WithServerCell(lambda.NewServerCell()))
		if err != nil {
			return err
		}
		// stdout carries the reply only
		container.Logger.SetOutput(cmd.ErrOrStderr())
		logrus.SetOutput(cmd.ErrOrStderr())

		if err := container.Mount(); err != nil {
			return err
		}

		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
			AwsRequestID:       requestID,
			InvokedFunctionArn: "arn:aws:lambda:local:000000000000:function:" + cfg.ServiceName,
		})

		out, err := container.Dispatcher.Invoke(ctx, payload)
		if err != nil {
			return fmt.Errorf("invocation %s failed: %w", requestID, err)
		}

		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode reply: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return err
	},
}

func readPayload(eventPath, hook string, stdin io.Reader) (json.RawMessage, error) {
	if hook != "" {
		file, name, ok := strings.Cut(hook, "#")
		if !ok || file == "" || name == "" {
			return nil, fmt.Errorf("invalid hook %q, expected file#hook", hook)
		}
		return json.Marshal(lambda.HookInvocation{
			ScandiumInvokeHook: lambda.HookDirective{File: file, Hook: name},
		})
	}

	var (
		raw []byte
		err error
	)
	if eventPath == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(eventPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("event %s is not valid JSON", eventPath)
	}
	return raw, nil
}
