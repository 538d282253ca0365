package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fdam/assessment-planner/internal/inference"
)

type ChatOptions struct {
	GlobalOptions

	SessionID string
}

func DefaultChatOptions() *ChatOptions {
	return &ChatOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdChat() *cobra.Command {
	o := DefaultChatOptions()
	cmd := &cobra.Command{
		Use:   "chat [flags] MESSAGE",
		Short: "Ask a follow-up question against a completed assessment's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ChatOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.SessionID, "session", "s", "", "Session id returned with the assessment result")
}

func (o *ChatOptions) Validate(args []string) error {
	if o.SessionID == "" {
		return errors.New("a session id is required, pass --session")
	}
	return nil
}

func (o *ChatOptions) Run(ctx context.Context, args []string) error {
	chat := inference.NewChat(o.InferenceConfig())

	reply, err := chat.SendMessage(ctx, o.SessionID, args[0])
	if err != nil {
		var apiErr *inference.APIError
		if errors.As(err, &apiErr) && apiErr.IsSessionNotFound() {
			return fmt.Errorf("session %s expired, run a new assessment to start a fresh conversation", o.SessionID)
		}
		return err
	}

	fmt.Println(reply.Response)
	return nil
}
