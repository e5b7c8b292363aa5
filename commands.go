package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"retail-insights/pkg/calculator"
	"retail-insights/pkg/classifier"
	"retail-insights/pkg/rfm"
)

func parseOptionalCutoff(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := calculator.ParseCutoff(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func featuresCmd() *cobra.Command {
	var cutoff string
	var limit int
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Derive the per-customer feature table",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseOptionalCutoff(cutoff)
			if err != nil {
				return err
			}
			tx, err := loadTransactions(cmd.Context())
			if err != nil {
				return err
			}
			opts := cfg.FeatureOptions()
			opts.Cutoff = c
			ft, err := calculator.ComputeCustomerFeatures(tx, opts)
			if err != nil {
				return err
			}
			renderFeatures(cmd.OutOrStdout(), ft, limit)
			return nil
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "only use rows on or before this date (YYYY-MM-DD or MMYYYY)")
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to print (0 = all)")
	cmd.Flags().BoolVar(&cfg.Synthetic, "synthetic", cfg.Synthetic, "add seeded demo-only ChurnProb/ConversionRate columns")
	return cmd
}

func rfmCmd() *cobra.Command {
	var cutoff string
	var limit int
	cmd := &cobra.Command{
		Use:   "rfm",
		Short: "Score customers by RFM quartiles and segment them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseOptionalCutoff(cutoff)
			if err != nil {
				return err
			}
			tx, err := loadTransactions(cmd.Context())
			if err != nil {
				return err
			}
			opts := cfg.FeatureOptions()
			opts.Cutoff = c
			ft, err := calculator.ComputeCustomerFeatures(tx, opts)
			if err != nil {
				return err
			}
			res, err := rfm.Score(ft, cfg.SegmentPolicy())
			if err != nil {
				return err
			}
			renderRFM(cmd.OutOrStdout(), res, limit)
			return nil
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "only use rows on or before this date")
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to print (0 = all)")
	return cmd
}

func labelCmd() *cobra.Command {
	var cutoff string
	cmd := &cobra.Command{
		Use:   "label",
		Short: "List customers who bought within the window after the cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := calculator.ParseCutoff(cutoff)
			if err != nil {
				return err
			}
			tx, err := loadTransactions(cmd.Context())
			if err != nil {
				return err
			}
			buyers := calculator.GenerateLabel(tx, c, cfg.LabelWindowDays)
			renderBuyers(cmd.OutOrStdout(), buyers, c, cfg.LabelWindowDays)
			return nil
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "cutoff date (YYYY-MM-DD or MMYYYY)")
	cmd.Flags().IntVar(&cfg.LabelWindowDays, "window", cfg.LabelWindowDays, "label window in days")
	_ = cmd.MarkFlagRequired("cutoff")
	return cmd
}

func trainCmd() *cobra.Command {
	var cutoff string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the next-month purchase classifier and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := calculator.ParseCutoff(cutoff)
			if err != nil {
				return err
			}
			tx, err := loadTransactions(cmd.Context())
			if err != nil {
				return err
			}
			examples, _, err := calculator.BuildLabeledDataset(tx, c, cfg.LabelWindowDays, cfg.FeatureOptions())
			if err != nil {
				return err
			}
			model, scaler, metrics, err := classifier.Train(examples, cfg.TrainOptions())
			if err != nil {
				return errors.Wrapf(err, "train at cutoff %s", c.Format("2006-01-02"))
			}
			if err := classifier.SaveArtifacts(cfg.ModelDir, model, scaler); err != nil {
				return err
			}
			renderMetrics(cmd.OutOrStdout(), metrics)
			return nil
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "feature/label cutoff date (YYYY-MM-DD or MMYYYY)")
	cmd.Flags().IntVar(&cfg.LabelWindowDays, "window", cfg.LabelWindowDays, "label window in days")
	cmd.Flags().Float64Var(&cfg.TestFraction, "test-fraction", cfg.TestFraction, "held-out share")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "split seed")
	_ = cmd.MarkFlagRequired("cutoff")
	return cmd
}

func predictCmd() *cobra.Command {
	var recency, frequency, monetary float64
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict whether one customer buys next month",
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := classifier.LoadModelContext(cfg.ModelDir)
			if err != nil {
				return err
			}
			defer mc.Close()
			class, prob, err := mc.PredictOne(recency, frequency, monetary)
			if err != nil {
				return err
			}
			verdict := "Won't purchase next month"
			if class == 1 {
				verdict = "Will purchase next month"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ; class=%d ; probability=%.2f%% ; run=%s\n", verdict, class, prob*100, mc.RunID())
			return nil
		},
	}
	cmd.Flags().Float64Var(&recency, "recency", 30, "days since last purchase")
	cmd.Flags().Float64Var(&frequency, "frequency", 2, "number of orders")
	cmd.Flags().Float64Var(&monetary, "monetary", 100, "total spend")
	return cmd
}
