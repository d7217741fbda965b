// cmd/tools/rank-offline/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"edugrant-workers/internal/catalog"
	apperrors "edugrant-workers/internal/common/errors"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/models"
	"edugrant-workers/internal/recommend"
	"edugrant-workers/internal/scoring"
	"edugrant-workers/internal/sink"
)

const app = "rank-offline"

// Actual version can be specified in build command.
var version = "unknown"

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           app,
		Short:         "Rank a CSV scholarship catalog against a profile file without any backing services",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.Context(), v, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				writeError(cmd.ErrOrStderr(), err)
			}
			return err
		},
	}

	cmd.Flags().StringP("profile", "p", "-", "profile JSON file, - reads stdin")
	cmd.Flags().StringP("catalog", "c", "data/scholarships.csv", "scholarship catalog CSV")
	cmd.Flags().StringP("model", "m", "", "predictive artifact JSON (default: heuristic scorer)")
	cmd.Flags().IntP("limit", "n", scoring.DefaultLimit, "maximum number of recommendations")
	cmd.Flags().BoolP("debug", "d", false, "verbose/debug output")

	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindEnv("model", "MODEL_PATH")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	})

	return cmd
}

func run(ctx context.Context, v *viper.Viper, stdin io.Reader, out io.Writer) error {
	level := "warn"
	if v.GetBool("debug") {
		level = "debug"
	}
	zapLog := logger.New(level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	profile, err := readProfile(v.GetString("profile"), stdin)
	if err != nil {
		return apperrors.NewInvalidRequestError(err.Error()).WithCause(err)
	}

	var artifacts scoring.ArtifactSource = scoring.StaticArtifact{}
	if path := v.GetString("model"); path != "" {
		artifacts = scoring.NewArtifactLoader(path)
	}

	limit := v.GetInt("limit")
	svc := recommend.NewService(
		catalog.NewCSVSource(v.GetString("catalog")),
		nil,
		sink.NopSink{},
		scoring.NewEngine(artifacts, log),
		log,
		scoring.DefaultLimit,
	).WithTransport("cli")

	resp, err := svc.Recommend(ctx, &recommend.Request{Profile: profile, Limit: &limit})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func readProfile(path string, stdin io.Reader) (models.Profile, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		defer f.Close()
		r = f
	}

	var profile models.Profile
	if err := json.NewDecoder(r).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

func writeError(w io.Writer, err error) {
	stdErr := recommend.Classify(err)
	payload, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{
			"code":    string(stdErr.Code),
			"message": stdErr.Message,
			"details": stdErr.Details,
		},
	})
	fmt.Fprintln(w, string(payload))
}
