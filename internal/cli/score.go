package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miradorstack/credit-risk/internal/api"
	"github.com/miradorstack/credit-risk/internal/artifact"
	"github.com/miradorstack/credit-risk/internal/engine"
	"github.com/miradorstack/credit-risk/internal/explain"
	"github.com/miradorstack/credit-risk/internal/features"
	"github.com/miradorstack/credit-risk/internal/models"
	"github.com/miradorstack/credit-risk/internal/utils"
)

func scoreCmd() *cobra.Command {
	var (
		modelPath  string
		rulesPath  string
		ext1       float64
		ext2       float64
		ext3       float64
		amount     int64
		income     string
		education  string
		gender     string
		withExpl   bool
		maxDisplay int
		format     string
		logLevel   string
	)

	c := &cobra.Command{
		Use:   "score",
		Short: "Score a single applicant from flags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := utils.NewLoggerTo(cmd.ErrOrStderr(), logLevel, false)

			raw := features.RawInputs{IncomeType: income, EducationType: education, Gender: gender}
			flags := cmd.Flags()
			if flags.Changed("ext1") {
				raw.ExtSource1 = &ext1
			}
			if flags.Changed("ext2") {
				raw.ExtSource2 = &ext2
			}
			if flags.Changed("ext3") {
				raw.ExtSource3 = &ext3
			}
			if flags.Changed("amount") {
				raw.AmtCredit = &amount
			}

			rules, err := engine.NewRuleEngine(rulesPath, logger)
			if err != nil {
				return err
			}
			var explainer engine.Explainer
			if withExpl {
				explainer = explain.NewExplainer(explain.WithMaxDisplay(maxDisplay))
			}
			predictor := engine.NewPredictor(logger, artifact.Shared(modelPath, logger), explainer, rules)

			result, err := predictor.Predict(cmd.Context(), raw, engine.PredictOptions{Explain: withExpl})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, format)
		},
	}

	c.Flags().StringVar(&modelPath, "model", artifact.DefaultPath, "Path to the model artifact")
	c.Flags().StringVar(&rulesPath, "rules", "", "Optional guidance rule pack")
	c.Flags().Float64Var(&ext1, "ext1", 0.5, "EXT_SOURCE_1 in [0,1]")
	c.Flags().Float64Var(&ext2, "ext2", 0.5, "EXT_SOURCE_2 in [0,1]")
	c.Flags().Float64Var(&ext3, "ext3", 0.5, "EXT_SOURCE_3 in [0,1]")
	c.Flags().Int64Var(&amount, "amount", 500000, "AMT_CREDIT in [10000, 2000000]")
	c.Flags().StringVar(&income, "income", string(models.IncomeWorking), "NAME_INCOME_TYPE")
	c.Flags().StringVar(&education, "education", string(models.EducationSecondary), "NAME_EDUCATION_TYPE")
	c.Flags().StringVar(&gender, "gender", string(models.GenderMale), "CODE_GENDER (M|F)")
	c.Flags().BoolVar(&withExpl, "explain", false, "Attach a per-feature explanation")
	c.Flags().IntVar(&maxDisplay, "max-display", explain.DefaultMaxDisplay, "Contributions shown individually")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	c.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for stderr diagnostics")
	return c
}

func printResult(w io.Writer, result models.PredictionResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.ToProtoPredictResponse(result))
	case "pretty", "":
	default:
		return fmt.Errorf("unknown format %q (want pretty|json)", format)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Probability of Default: %.1f%%\n", result.Probability*100)
	fmt.Fprintf(&b, "%s\n", result.Tier.Label())
	for _, note := range result.Notes {
		fmt.Fprintf(&b, "  - %s\n", note)
	}
	switch {
	case result.ExplanationError != "":
		fmt.Fprintf(&b, "\nExplanation unavailable: %s\n", result.ExplanationError)
	case result.Explanation != nil:
		exp := result.Explanation
		fmt.Fprintf(&b, "\nE[f(x)] = %.3f  ->  f(x) = %.3f\n", exp.Baseline, exp.Output)
		for _, c := range exp.Top {
			fmt.Fprintf(&b, "  %+8.3f  %s = %.3g\n", c.Value, c.Feature, c.Data)
		}
		if exp.OtherFeatures > 0 {
			fmt.Fprintf(&b, "  %+8.3f  %d other features\n", exp.OtherSum, exp.OtherFeatures)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
