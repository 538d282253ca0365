package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fdam/assessment-planner/internal/inference"
)

type GlobalOptions struct {
	ServiceUrl string
	ApiKey     string
	Timeout    time.Duration
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ServiceUrl: "http://localhost:8000",
		Timeout:    45 * time.Second,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServiceUrl, "service-url", "u", o.ServiceUrl, "Address of the inference service")
	fs.StringVarP(&o.ApiKey, "api-key", "k", o.ApiKey, "API key for the inference service")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Timeout of one request to the inference service")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

func (o *GlobalOptions) InferenceConfig() inference.Config {
	return inference.Config{
		BaseURL: o.ServiceUrl,
		ApiKey:  o.ApiKey,
		Timeout: o.Timeout,
	}
}
