package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/handlers/validator"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/orchestrator"
)

type AssessOptions struct {
	GlobalOptions

	RoomType      string
	StructureType string
	Dimensions    string
	FireOrigin    string
	Notes         string
}

func DefaultAssessOptions() *AssessOptions {
	return &AssessOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdAssess() *cobra.Command {
	o := DefaultAssessOptions()
	cmd := &cobra.Command{
		Use:   "assess [flags] IMAGE...",
		Short: "Submit images for a damage assessment and wait for the report",
		Args:  cobra.MinimumNArgs(1),
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

func (o *AssessOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.RoomType, "room-type", "", "Room type of the assessed area")
	fs.StringVar(&o.StructureType, "structure-type", "", "Structure type of the assessed property")
	fs.StringVar(&o.Dimensions, "dimensions", "", "Approximate dimensions of the area")
	fs.StringVar(&o.FireOrigin, "fire-origin", "", "Suspected point of origin")
	fs.StringVar(&o.Notes, "notes", "", "Free-form notes for the assessor")
}

func (o *AssessOptions) Run(ctx context.Context, args []string) error {
	form, err := o.buildForm(args)
	if err != nil {
		return err
	}

	v := validator.NewValidator()
	v.Register(validator.NewAssessmentValidationRules()...)
	if err := v.Struct(*form); err != nil {
		return fmt.Errorf("invalid assessment form: %w", err)
	}

	client := inference.New(o.InferenceConfig())

	done := make(chan error, 1)
	orch := orchestrator.New(client, orchestrator.DefaultPolicy(), orchestrator.Callbacks{
		OnUpdate: func(u orchestrator.Update) {
			if u.Info != "" {
				fmt.Printf("%s: %s\n", u.Phase, u.Info)
				return
			}
			fmt.Printf("%s (%s)\n", u.Phase, u.JobStatus)
		},
		OnCompleted: func(res orchestrator.Result) {
			fmt.Printf("assessment completed in %s (session %s)\n\n", res.Elapsed.Round(time.Second), res.SessionID)
			out, err := json.MarshalIndent(res.Report, "", "  ")
			if err != nil {
				done <- err
				return
			}
			fmt.Println(string(out))
			done <- nil
		},
		OnFailed: func(f orchestrator.Failure) {
			done <- fmt.Errorf("assessment failed (%s): %s", f.Reason, f.Message)
		},
	})

	if err := orch.Start(ctx, *form); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		orch.Cancel()
		return ctx.Err()
	}
}

func (o *AssessOptions) buildForm(paths []string) (*api.AssessmentForm, error) {
	images := make([]string, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read image %s", path)
		}
		images = append(images, base64.StdEncoding.EncodeToString(raw))
	}

	return &api.AssessmentForm{
		Images: images,
		Metadata: api.PropertyMetadata{
			RoomType:      o.RoomType,
			StructureType: o.StructureType,
			Dimensions:    o.Dimensions,
			FireOrigin:    o.FireOrigin,
			Notes:         o.Notes,
		},
	}, nil
}
